package service

import (
	"context"
	"errors"
	"github.com/rookgm/storefront/internal/models"
)

// CartRepository is interface for interacting with user carts
type CartRepository interface {
	// GetCart returns user cart with items, empty cart if user has none
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	// AddItems increases quantities of products in user cart
	AddItems(ctx context.Context, userID string, items []models.CartItem) error
	// SetItemQuantity sets product quantity, non-positive quantity removes the product
	SetItemQuantity(ctx context.Context, userID string, productID, quantity int64) error
	// RemoveItem deletes product from user cart
	RemoveItem(ctx context.Context, userID string, productID int64) error
}

// CartProductFinder resolves catalog identifiers of cart lines
type CartProductFinder interface {
	FindByIdentifier(ctx context.Context, identifier string) (*models.Product, error)
	GetProductsByIdentifiers(ctx context.Context, identifiers []string) ([]models.Product, error)
}

// CartService implements shopping cart of signed-in users
type CartService struct {
	carts    CartRepository
	products CartProductFinder
}

// NewCartService creates new CartService instance
func NewCartService(carts CartRepository, products CartProductFinder) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
	}
}

// GetCart returns current user cart
func (cs *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return cs.carts.GetCart(ctx, userID)
}

// AddToCart adds product quantity to user cart
func (cs *CartService) AddToCart(ctx context.Context, userID string, line models.CartLine) (*models.Cart, error) {
	if line.Quantity < 1 {
		return nil, models.ErrInvalidQuantity
	}

	product, err := cs.products.FindByIdentifier(ctx, line.Identifier)
	if err != nil {
		return nil, err
	}

	err = cs.carts.AddItems(ctx, userID, []models.CartItem{{ProductID: product.ID, Quantity: line.Quantity}})
	if err != nil {
		return nil, err
	}

	return cs.carts.GetCart(ctx, userID)
}

// UpdateItem sets product quantity in user cart, zero or negative quantity removes it
func (cs *CartService) UpdateItem(ctx context.Context, userID string, line models.CartLine) (*models.Cart, error) {
	product, err := cs.products.FindByIdentifier(ctx, line.Identifier)
	if err != nil {
		return nil, err
	}

	if err := cs.carts.SetItemQuantity(ctx, userID, product.ID, line.Quantity); err != nil {
		return nil, err
	}

	return cs.carts.GetCart(ctx, userID)
}

// RemoveItem deletes product from user cart. Unknown product leaves the cart as is.
func (cs *CartService) RemoveItem(ctx context.Context, userID, identifier string) (*models.Cart, error) {
	product, err := cs.products.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			return cs.carts.GetCart(ctx, userID)
		}
		return nil, err
	}

	if err := cs.carts.RemoveItem(ctx, userID, product.ID); err != nil {
		return nil, err
	}

	return cs.carts.GetCart(ctx, userID)
}

// MergeGuestCart adds lines collected before sign-in to user cart.
// Lines of the same product are summed, unknown products are skipped.
func (cs *CartService) MergeGuestCart(ctx context.Context, userID string, lines []models.CartLine) (*models.Cart, error) {
	if len(lines) == 0 {
		return nil, models.ErrEmptyCart
	}

	quantities := make(map[string]int64, len(lines))
	identifiers := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, models.ErrInvalidQuantity
		}
		if _, ok := quantities[line.Identifier]; !ok {
			identifiers = append(identifiers, line.Identifier)
		}
		quantities[line.Identifier] += line.Quantity
	}

	products, err := cs.products.GetProductsByIdentifiers(ctx, identifiers)
	if err != nil {
		return nil, err
	}

	byIdentifier := make(map[string]int64, len(products))
	for _, product := range products {
		byIdentifier[product.Identifier] = product.ID
	}

	items := make([]models.CartItem, 0, len(products))
	for _, identifier := range identifiers {
		productID, ok := byIdentifier[identifier]
		if !ok {
			continue
		}
		items = append(items, models.CartItem{ProductID: productID, Quantity: quantities[identifier]})
	}

	if len(items) > 0 {
		if err := cs.carts.AddItems(ctx, userID, items); err != nil {
			return nil, err
		}
	}

	return cs.carts.GetCart(ctx, userID)
}
