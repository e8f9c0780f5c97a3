package repository

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/rookgm/storefront/internal/models"
	"github.com/rookgm/storefront/internal/repository/postgres"
)

const (
	upsertCartQuery = `
						INSERT INTO carts (user_id) VALUES ($1)
						ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
						RETURNING id
`
	selectCartIDQuery = `
						SELECT id FROM carts
						WHERE user_id = $1
`
	addCartItemQuery = `
						INSERT INTO cart_items (cart_id, product_id, quantity)
						VALUES ($1, $2, $3)
						ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
`
	setCartItemQuery = `
						INSERT INTO cart_items (cart_id, product_id, quantity)
						VALUES ($1, $2, $3)
						ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
`
	deleteCartItemQuery = `
						DELETE FROM cart_items ci
						USING carts c
						WHERE ci.cart_id = c.id AND c.user_id = $1 AND ci.product_id = $2
`
	selectCartItemsQuery = `
						SELECT ci.id, ci.quantity, ` + productColumns + `, pp.id, pp.stripe_price_id, pp.amount, pp.currency
						FROM cart_items ci
						JOIN products p ON p.id = ci.product_id
						LEFT JOIN LATERAL (
							SELECT id, stripe_price_id, amount, currency FROM product_prices
							WHERE product_id = p.id AND is_active AND is_default
							ORDER BY id
							LIMIT 1
						) pp ON TRUE
						WHERE ci.cart_id = $1
						ORDER BY ci.id
`
)

// CartRepository implements CartRepository interface
type CartRepository struct {
	db *postgres.DB
}

// NewCartRepository creates new CartRepository instance
func NewCartRepository(db *postgres.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetCart returns user cart with items. User without cart gets an empty one.
func (cr *CartRepository) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID, Items: []models.CartItem{}}

	err := cr.db.QueryRow(ctx, selectCartIDQuery, userID).Scan(&cart.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart, nil
		}
		return nil, err
	}

	rows, err := cr.db.Query(ctx, selectCartItemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item          models.CartItem
			priceID       *int64
			stripePriceID *string
			amount        *int64
			currency      *string
		)
		err = rows.Scan(
			&item.ID,
			&item.Quantity,
			&item.Product.ID,
			&item.Product.Identifier,
			&item.Product.Title,
			&item.Product.Subtitle,
			&item.Product.Price,
			&item.Product.StripeProductID,
			&priceID,
			&stripePriceID,
			&amount,
			&currency,
		)
		if err != nil {
			return nil, err
		}

		item.ProductID = item.Product.ID
		if priceID != nil {
			item.Product.DefaultPrice = &models.Price{
				ID:            *priceID,
				ProductID:     item.ProductID,
				StripePriceID: *stripePriceID,
				Amount:        *amount,
				Currency:      *currency,
				IsActive:      true,
				IsDefault:     true,
			}
		}

		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

// AddItems adds quantities to user cart, the cart is created on first use.
// Quantity of product already in the cart is increased.
func (cr *CartRepository) AddItems(ctx context.Context, userID string, items []models.CartItem) error {
	return cr.db.WithTx(ctx, func(tx pgx.Tx) error {
		var cartID int64
		if err := tx.QueryRow(ctx, upsertCartQuery, userID).Scan(&cartID); err != nil {
			return err
		}

		for _, item := range items {
			if _, err := tx.Exec(ctx, addCartItemQuery, cartID, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return nil
	})
}

// SetItemQuantity sets product quantity in user cart. Non-positive quantity removes the product.
func (cr *CartRepository) SetItemQuantity(ctx context.Context, userID string, productID, quantity int64) error {
	if quantity <= 0 {
		return cr.RemoveItem(ctx, userID, productID)
	}

	return cr.db.WithTx(ctx, func(tx pgx.Tx) error {
		var cartID int64
		if err := tx.QueryRow(ctx, upsertCartQuery, userID).Scan(&cartID); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, setCartItemQuery, cartID, productID, quantity)
		return err
	})
}

// RemoveItem deletes product from user cart, missing product is not an error
func (cr *CartRepository) RemoveItem(ctx context.Context, userID string, productID int64) error {
	_, err := cr.db.Exec(ctx, deleteCartItemQuery, userID, productID)
	return err
}
