package service

import (
	"context"
	"errors"
	"github.com/google/go-cmp/cmp"
	"github.com/rookgm/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"testing"
	"time"
)

// stubOrderRepo records calls made by OrderService
type stubOrderRepo struct {
	order       *models.Order
	orders      []models.Order
	total       int
	err         error
	gotFilter   models.OrderFilter
	gotStatus   models.OrderStatus
	gotSince    time.Time
	statusCalls int
}

func (r *stubOrderRepo) GetOrderByID(_ context.Context, _ string) (*models.Order, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.order, nil
}

func (r *stubOrderRepo) ListOrders(_ context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	r.gotFilter = filter
	return r.orders, r.total, r.err
}

func (r *stubOrderRepo) UpdateOrderStatus(_ context.Context, _ string, status models.OrderStatus) error {
	r.statusCalls++
	r.gotStatus = status
	return r.err
}

func (r *stubOrderRepo) GetOrderStats(_ context.Context, since time.Time) (models.OrderStats, error) {
	r.gotSince = since
	return models.OrderStats{TotalOrders: 3}, r.err
}

func TestOrderService_ListUserOrders(t *testing.T) {
	tests := []struct {
		name       string
		filter     models.OrderFilter
		repoTotal  int
		wantFilter models.OrderFilter
		wantPage   models.OrderPage
	}{
		{
			name:       "defaults",
			repoTotal:  21,
			wantFilter: models.OrderFilter{UserID: "u1", Page: 1, Limit: 10},
			wantPage:   models.OrderPage{TotalCount: 21, TotalPages: 3, CurrentPage: 1},
		},
		{
			name:       "limit_capped",
			filter:     models.OrderFilter{Page: 2, Limit: 500, CustomerEmail: "spy@example.com"},
			repoTotal:  60,
			wantFilter: models.OrderFilter{UserID: "u1", Page: 2, Limit: 50},
			wantPage:   models.OrderPage{TotalCount: 60, TotalPages: 2, CurrentPage: 2},
		},
		{
			name:       "no_orders",
			filter:     models.OrderFilter{Status: models.OrderStatusPaid},
			wantFilter: models.OrderFilter{UserID: "u1", Status: models.OrderStatusPaid, Page: 1, Limit: 10},
			wantPage:   models.OrderPage{CurrentPage: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubOrderRepo{total: tt.repoTotal}
			svc := NewOrderService(repo, zap.NewNop())

			page, err := svc.ListUserOrders(context.Background(), "u1", tt.filter)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.wantFilter, repo.gotFilter); diff != "" {
				t.Errorf("filter mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantPage, *page); diff != "" {
				t.Errorf("page mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderService_ListOrders_InvalidStatus(t *testing.T) {
	svc := NewOrderService(&stubOrderRepo{}, zap.NewNop())

	_, err := svc.ListOrders(context.Background(), models.OrderFilter{Status: "LOST"})

	assert.ErrorIs(t, err, models.ErrInvalidOrderStatus)
}

func TestOrderService_ListOrders_AdminDefaults(t *testing.T) {
	repo := &stubOrderRepo{}
	svc := NewOrderService(repo, zap.NewNop())

	_, err := svc.ListOrders(context.Background(), models.OrderFilter{CustomerEmail: "buyer"})
	require.NoError(t, err)

	assert.Equal(t, 20, repo.gotFilter.Limit)
	assert.Equal(t, "buyer", repo.gotFilter.CustomerEmail)
}

func TestOrderService_GetUserOrder(t *testing.T) {
	owner := "u1"

	tests := []struct {
		name    string
		repo    *stubOrderRepo
		wantErr error
	}{
		{name: "owned", repo: &stubOrderRepo{order: &models.Order{ID: "44444444-4444-4444-4444-444444444444", UserID: &owner}}},
		{name: "other_user", repo: &stubOrderRepo{order: &models.Order{ID: "44444444-4444-4444-4444-444444444444", UserID: strPtr("u2")}}, wantErr: models.ErrDataNotFound},
		{name: "guest_order", repo: &stubOrderRepo{order: &models.Order{ID: "44444444-4444-4444-4444-444444444444"}}, wantErr: models.ErrDataNotFound},
		{name: "missing", repo: &stubOrderRepo{err: models.ErrDataNotFound}, wantErr: models.ErrDataNotFound},
	}

	t.Run("malformed_id", func(t *testing.T) {
		repo := &stubOrderRepo{order: &models.Order{ID: "x", UserID: &owner}}
		_, err := NewOrderService(repo, zap.NewNop()).GetUserOrder(context.Background(), owner, "x")
		assert.ErrorIs(t, err, models.ErrDataNotFound)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewOrderService(tt.repo, zap.NewNop())

			order, err := svc.GetUserOrder(context.Background(), owner, "44444444-4444-4444-4444-444444444444")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, order)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "44444444-4444-4444-4444-444444444444", order.ID)
		})
	}
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	repo := &stubOrderRepo{}
	svc := NewOrderService(repo, zap.NewNop())

	err := svc.UpdateOrderStatus(context.Background(), "44444444-4444-4444-4444-444444444444", "LOST")
	assert.ErrorIs(t, err, models.ErrInvalidOrderStatus)
	assert.Zero(t, repo.statusCalls)

	err = svc.UpdateOrderStatus(context.Background(), "44444444-4444-4444-4444-444444444444", models.OrderStatusPending)
	assert.ErrorIs(t, err, models.ErrStatusTransition)
	assert.Zero(t, repo.statusCalls)

	err = svc.UpdateOrderStatus(context.Background(), "44444444-4444-4444-4444-444444444444", models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, repo.gotStatus)

	repo.err = errors.New("db down")
	err = svc.UpdateOrderStatus(context.Background(), "44444444-4444-4444-4444-444444444444", models.OrderStatusDelivered)
	assert.ErrorIs(t, err, repo.err)
}

func TestOrderService_GetOrderStats(t *testing.T) {
	repo := &stubOrderRepo{}
	svc := NewOrderService(repo, zap.NewNop())
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	stats, err := svc.GetOrderStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, now.AddDate(0, 0, -7), repo.gotSince)
}
