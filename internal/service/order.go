package service

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
	"time"
)

const (
	defaultUserPageLimit  = 10
	defaultAdminPageLimit = 20
	maxPageLimit          = 50
	statsWindow           = 7 * 24 * time.Hour
)

// OrderRepository is interface for interacting with order-related data
type OrderRepository interface {
	// GetOrderByID returns order with its items
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	// ListOrders returns page of orders and total number of matching orders
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error)
	// UpdateOrderStatus sets order status
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	// GetOrderStats returns order summary, recent orders counted since given time
	GetOrderStats(ctx context.Context, since time.Time) (models.OrderStats, error)
}

// OrderService implements order queries for buyers and admins
type OrderService struct {
	repo   OrderRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewOrderService creates new OrderService instance
func NewOrderService(repo OrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// ListUserOrders returns page of user orders, newest first
func (os *OrderService) ListUserOrders(ctx context.Context, userID string, filter models.OrderFilter) (*models.OrderPage, error) {
	filter.UserID = userID
	filter.CustomerEmail = ""
	return os.listOrders(ctx, filter, defaultUserPageLimit)
}

// ListOrders returns page of all orders
func (os *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) (*models.OrderPage, error) {
	return os.listOrders(ctx, filter, defaultAdminPageLimit)
}

// GetUserOrder returns order owned by user
func (os *OrderService) GetUserOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, models.ErrDataNotFound
	}

	order, err := os.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// other users orders look missing
	if order.UserID == nil || *order.UserID != userID {
		return nil, models.ErrDataNotFound
	}

	return order, nil
}

// UpdateOrderStatus sets order status from admin fulfilment workflow.
// Only payment reconciliation works with PENDING orders, so no order goes back to it.
func (os *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	if !status.Valid() {
		return models.ErrInvalidOrderStatus
	}
	if status == models.OrderStatusPending {
		return models.ErrStatusTransition
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return models.ErrDataNotFound
	}

	if err := os.repo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return err
	}

	os.logger.Info("order status updated", zap.String("order_id", orderID), zap.String("status", string(status)))

	return nil
}

// GetOrderStats returns order summary for admin dashboard
func (os *OrderService) GetOrderStats(ctx context.Context) (models.OrderStats, error) {
	return os.repo.GetOrderStats(ctx, os.now().Add(-statsWindow))
}

func (os *OrderService) listOrders(ctx context.Context, filter models.OrderFilter, defaultLimit int) (*models.OrderPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, models.ErrInvalidOrderStatus
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	orders, total, err := os.repo.ListOrders(ctx, filter)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			orders, total = nil, 0
		} else {
			return nil, err
		}
	}

	return &models.OrderPage{
		Orders:      orders,
		TotalCount:  total,
		TotalPages:  (total + filter.Limit - 1) / filter.Limit,
		CurrentPage: filter.Page,
	}, nil
}
