package service

import (
	"context"
	"github.com/rookgm/storefront/internal/models"
)

// ProductReader is interface for catalog reads
type ProductReader interface {
	// ListProducts returns all products with their active prices, newest first
	ListProducts(ctx context.Context) ([]models.Product, error)
	// GetProductsByIdentifiers returns products with their active prices by catalog identifiers
	GetProductsByIdentifiers(ctx context.Context, identifiers []string) ([]models.Product, error)
}

// CatalogService implements catalog reads
type CatalogService struct {
	repo ProductReader
}

// NewCatalogService creates new CatalogService instance
func NewCatalogService(repo ProductReader) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListProducts returns whole catalog
func (cs *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return cs.repo.ListProducts(ctx)
}

// GetProduct returns product by catalog identifier
func (cs *CatalogService) GetProduct(ctx context.Context, identifier string) (*models.Product, error) {
	products, err := cs.repo.GetProductsByIdentifiers(ctx, []string{identifier})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, models.ErrDataNotFound
	}
	return &products[0], nil
}

// GetProducts returns products by catalog identifiers in the requested order.
// Unknown and repeated identifiers are skipped.
func (cs *CatalogService) GetProducts(ctx context.Context, identifiers []string) ([]models.Product, error) {
	if len(identifiers) == 0 {
		return []models.Product{}, nil
	}

	products, err := cs.repo.GetProductsByIdentifiers(ctx, identifiers)
	if err != nil {
		return nil, err
	}

	byIdentifier := make(map[string]models.Product, len(products))
	for _, product := range products {
		byIdentifier[product.Identifier] = product
	}

	res := make([]models.Product, 0, len(products))
	for _, identifier := range identifiers {
		product, ok := byIdentifier[identifier]
		if !ok {
			continue
		}
		res = append(res, product)
		delete(byIdentifier, identifier)
	}

	return res, nil
}
