package service

import (
	"context"
	"errors"
	"github.com/google/go-cmp/cmp"
	"github.com/rookgm/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

// memCarts keeps product quantities per user
type memCarts struct {
	mu       sync.Mutex
	catalog  *memCatalog
	carts    map[string]map[int64]int64
	order    map[string][]int64
	failAdd  error
	addCalls int
}

func newMemCarts(catalog *memCatalog) *memCarts {
	return &memCarts{
		catalog: catalog,
		carts:   make(map[string]map[int64]int64),
		order:   make(map[string][]int64),
	}
}

func (m *memCarts) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := &models.Cart{UserID: userID, Items: []models.CartItem{}}
	for _, productID := range m.order[userID] {
		qty, ok := m.carts[userID][productID]
		if !ok {
			continue
		}
		item := models.CartItem{ProductID: productID, Quantity: qty}
		for _, p := range m.catalog.products {
			if p.ID == productID {
				item.Product = p
			}
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

func (m *memCarts) setLocked(userID string, productID, qty int64) {
	if m.carts[userID] == nil {
		m.carts[userID] = make(map[int64]int64)
	}
	if _, ok := m.carts[userID][productID]; !ok {
		m.order[userID] = append(m.order[userID], productID)
	}
	m.carts[userID][productID] = qty
}

func (m *memCarts) AddItems(_ context.Context, userID string, items []models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls++
	if m.failAdd != nil {
		return m.failAdd
	}
	for _, item := range items {
		m.setLocked(userID, item.ProductID, m.carts[userID][item.ProductID]+item.Quantity)
	}
	return nil
}

func (m *memCarts) SetItemQuantity(ctx context.Context, userID string, productID, quantity int64) error {
	if quantity <= 0 {
		return m.RemoveItem(ctx, userID, productID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(userID, productID, quantity)
	return nil
}

func (m *memCarts) RemoveItem(_ context.Context, userID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts[userID], productID)
	ids := m.order[userID][:0]
	for _, id := range m.order[userID] {
		if id != productID {
			ids = append(ids, id)
		}
	}
	m.order[userID] = ids
	return nil
}

type cartQty struct {
	ProductID int64
	Quantity  int64
}

func cartQuantities(cart *models.Cart) []cartQty {
	res := []cartQty{}
	for _, item := range cart.Items {
		res = append(res, cartQty{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return res
}

const testUserID = "11111111-1111-1111-1111-111111111111"

func TestCartService_AddToCart(t *testing.T) {
	catalog := testCatalog()
	carts := newMemCarts(catalog)
	svc := NewCartService(carts, catalog)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, testUserID, models.CartLine{Identifier: "product-x", Quantity: 2})
	require.NoError(t, err)
	cart, err := svc.AddToCart(ctx, testUserID, models.CartLine{Identifier: "product-x", Quantity: 1})
	require.NoError(t, err)

	if diff := cmp.Diff([]cartQty{{ProductID: 1, Quantity: 3}}, cartQuantities(cart)); diff != "" {
		t.Errorf("cart mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(1500), cart.Total())

	_, err = svc.AddToCart(ctx, testUserID, models.CartLine{Identifier: "product-x", Quantity: 0})
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)

	_, err = svc.AddToCart(ctx, testUserID, models.CartLine{Identifier: "product-z", Quantity: 1})
	assert.ErrorIs(t, err, models.ErrDataNotFound)
}

func TestCartService_UpdateItem(t *testing.T) {
	tests := []struct {
		name    string
		line    models.CartLine
		want    []cartQty
		wantErr error
	}{
		{name: "set_quantity", line: models.CartLine{Identifier: "product-x", Quantity: 5}, want: []cartQty{{ProductID: 1, Quantity: 5}, {ProductID: 2, Quantity: 1}}},
		{name: "add_missing_product", line: models.CartLine{Identifier: "product-y", Quantity: 4}, want: []cartQty{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 4}}},
		{name: "zero_removes", line: models.CartLine{Identifier: "product-x", Quantity: 0}, want: []cartQty{{ProductID: 2, Quantity: 1}}},
		{name: "negative_removes", line: models.CartLine{Identifier: "product-x", Quantity: -1}, want: []cartQty{{ProductID: 2, Quantity: 1}}},
		{name: "unknown_product", line: models.CartLine{Identifier: "product-z", Quantity: 1}, wantErr: models.ErrDataNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := testCatalog()
			carts := newMemCarts(catalog)
			require.NoError(t, carts.AddItems(context.Background(), testUserID, []models.CartItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}))
			svc := NewCartService(carts, catalog)

			cart, err := svc.UpdateItem(context.Background(), testUserID, tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, cartQuantities(cart)); diff != "" {
				t.Errorf("cart mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCartService_RemoveItem(t *testing.T) {
	catalog := testCatalog()
	carts := newMemCarts(catalog)
	require.NoError(t, carts.AddItems(context.Background(), testUserID, []models.CartItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}))
	svc := NewCartService(carts, catalog)

	cart, err := svc.RemoveItem(context.Background(), testUserID, "product-x")
	require.NoError(t, err)
	assert.Equal(t, []cartQty{{ProductID: 2, Quantity: 1}}, cartQuantities(cart))

	cart, err = svc.RemoveItem(context.Background(), testUserID, "product-z")
	require.NoError(t, err)
	assert.Equal(t, []cartQty{{ProductID: 2, Quantity: 1}}, cartQuantities(cart))

	catalog.fail = errors.New("db down")
	_, err = svc.RemoveItem(context.Background(), testUserID, "product-y")
	assert.ErrorIs(t, err, catalog.fail)
}

func TestCartService_MergeGuestCart(t *testing.T) {
	tests := []struct {
		name         string
		lines        []models.CartLine
		want         []cartQty
		wantErr      error
		wantAddCalls int
	}{
		{
			name:         "merges_into_existing_cart",
			lines:        []models.CartLine{{Identifier: "product-y", Quantity: 2}, {Identifier: "product-x", Quantity: 1}},
			want:         []cartQty{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 2}},
			wantAddCalls: 1,
		},
		{
			name:         "sums_repeated_lines",
			lines:        []models.CartLine{{Identifier: "product-y", Quantity: 2}, {Identifier: "product-y", Quantity: 3}},
			want:         []cartQty{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 5}},
			wantAddCalls: 1,
		},
		{
			name:         "skips_unknown_products",
			lines:        []models.CartLine{{Identifier: "product-z", Quantity: 1}, {Identifier: "product-y", Quantity: 1}},
			want:         []cartQty{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}},
			wantAddCalls: 1,
		},
		{
			name:  "only_unknown_products",
			lines: []models.CartLine{{Identifier: "product-z", Quantity: 1}},
			want:  []cartQty{{ProductID: 1, Quantity: 1}},
		},
		{
			name:    "empty_guest_cart",
			wantErr: models.ErrEmptyCart,
		},
		{
			name:    "invalid_quantity",
			lines:   []models.CartLine{{Identifier: "product-y", Quantity: 0}},
			wantErr: models.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := testCatalog()
			carts := newMemCarts(catalog)
			require.NoError(t, carts.AddItems(context.Background(), testUserID, []models.CartItem{{ProductID: 1, Quantity: 1}}))
			carts.addCalls = 0
			svc := NewCartService(carts, catalog)

			cart, err := svc.MergeGuestCart(context.Background(), testUserID, tt.lines)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, carts.addCalls)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, cartQuantities(cart)); diff != "" {
				t.Errorf("cart mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantAddCalls, carts.addCalls)
		})
	}
}
