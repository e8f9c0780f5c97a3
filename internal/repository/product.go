package repository

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/rookgm/storefront/internal/models"
	"github.com/rookgm/storefront/internal/repository/postgres"
)

const productColumns = `p.id, p.identifier, p.title, p.subtitle, p.price, p.stripe_product_id`

const (
	selectProductsByIDsQuery = `
						SELECT ` + productColumns + `, pp.id, pp.stripe_price_id, pp.amount, pp.currency
						FROM products p
						LEFT JOIN LATERAL (
							SELECT id, stripe_price_id, amount, currency FROM product_prices
							WHERE product_id = p.id AND is_active AND is_default
							ORDER BY id
							LIMIT 1
						) pp ON TRUE
						WHERE p.id = ANY($1)
`
	selectProductByStripeIDQuery = `
						SELECT ` + productColumns + ` FROM products p
						WHERE p.stripe_product_id = $1
`
	selectProductByIdentifierQuery = `
						SELECT ` + productColumns + ` FROM products p
						WHERE p.identifier = $1
`
	selectAllProductsQuery = `
						SELECT ` + productColumns + ` FROM products p
						ORDER BY p.created_at DESC, p.id DESC
`
	selectProductsByIdentifiersQuery = `
						SELECT ` + productColumns + ` FROM products p
						WHERE p.identifier = ANY($1)
						ORDER BY p.id
`
	selectActivePricesQuery = `
						SELECT id, product_id, stripe_price_id, amount, currency, is_default FROM product_prices
						WHERE product_id = ANY($1) AND is_active
						ORDER BY is_default DESC, id
`
)

// ProductRepository implements ProductRepository interface
type ProductRepository struct {
	db *postgres.DB
}

// NewProductRepository creates new ProductRepository instance
func NewProductRepository(db *postgres.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetProductsByIDs returns products with their default active price
func (pr *ProductRepository) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	rows, err := pr.db.Query(ctx, selectProductsByIDsQuery, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}

	for rows.Next() {
		var (
			product       models.Product
			priceID       *int64
			stripePriceID *string
			amount        *int64
			currency      *string
		)
		err = rows.Scan(
			&product.ID,
			&product.Identifier,
			&product.Title,
			&product.Subtitle,
			&product.Price,
			&product.StripeProductID,
			&priceID,
			&stripePriceID,
			&amount,
			&currency,
		)
		if err != nil {
			return nil, err
		}

		if priceID != nil {
			product.DefaultPrice = &models.Price{
				ID:            *priceID,
				ProductID:     product.ID,
				StripePriceID: *stripePriceID,
				Amount:        *amount,
				Currency:      *currency,
				IsActive:      true,
				IsDefault:     true,
			}
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// FindByStripeProductID returns product registered with payment processor product id
func (pr *ProductRepository) FindByStripeProductID(ctx context.Context, stripeProductID string) (*models.Product, error) {
	return pr.getProduct(ctx, selectProductByStripeIDQuery, stripeProductID)
}

// FindByIdentifier returns product by catalog identifier
func (pr *ProductRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Product, error) {
	return pr.getProduct(ctx, selectProductByIdentifierQuery, identifier)
}

func (pr *ProductRepository) getProduct(ctx context.Context, query string, arg string) (*models.Product, error) {
	product := models.Product{}
	err := pr.db.QueryRow(ctx, query, arg).Scan(
		&product.ID,
		&product.Identifier,
		&product.Title,
		&product.Subtitle,
		&product.Price,
		&product.StripeProductID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	return &product, nil
}

// ListProducts returns all products with their active prices, newest first
func (pr *ProductRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	return pr.listProducts(ctx, selectAllProductsQuery)
}

// GetProductsByIdentifiers returns products with their active prices by catalog identifiers.
// Unknown identifiers are left out.
func (pr *ProductRepository) GetProductsByIdentifiers(ctx context.Context, identifiers []string) ([]models.Product, error) {
	return pr.listProducts(ctx, selectProductsByIdentifiersQuery, identifiers)
}

func (pr *ProductRepository) listProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := pr.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product := models.Product{}
		err = rows.Scan(
			&product.ID,
			&product.Identifier,
			&product.Title,
			&product.Subtitle,
			&product.Price,
			&product.StripeProductID,
		)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(products) == 0 {
		return products, nil
	}

	if err := pr.attachPrices(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

// attachPrices loads active prices of products, the first default one becomes DefaultPrice
func (pr *ProductRepository) attachPrices(ctx context.Context, products []models.Product) error {
	ids := make([]int64, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}

	rows, err := pr.db.Query(ctx, selectActivePricesQuery, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	byProduct := make(map[int64][]models.Price)
	for rows.Next() {
		price := models.Price{IsActive: true}
		err = rows.Scan(
			&price.ID,
			&price.ProductID,
			&price.StripePriceID,
			&price.Amount,
			&price.Currency,
			&price.IsDefault,
		)
		if err != nil {
			return err
		}
		byProduct[price.ProductID] = append(byProduct[price.ProductID], price)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range products {
		products[i].Prices = byProduct[products[i].ID]
		if len(products[i].Prices) > 0 && products[i].Prices[0].IsDefault {
			price := products[i].Prices[0]
			products[i].DefaultPrice = &price
		}
	}

	return nil
}
