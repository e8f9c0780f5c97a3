package service

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
	"strings"
)

// CatalogRepository is interface for reading products
type CatalogRepository interface {
	// GetProductsByIDs returns products with their default active price
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// SessionCreator creates checkout sessions at the payment processor
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, params models.SessionParams) (*models.CheckoutSession, error)
}

// PendingOrderCreator stores optimistic orders
type PendingOrderCreator interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
}

// CheckoutService starts checkout sessions
type CheckoutService struct {
	catalog   CatalogRepository
	processor SessionCreator
	orders    PendingOrderCreator
	baseURL   string
	logger    *zap.Logger
	newID     func() string
}

// NewCheckoutService creates new CheckoutService instance
func NewCheckoutService(catalog CatalogRepository, processor SessionCreator, orders PendingOrderCreator, baseURL string, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		catalog:   catalog,
		processor: processor,
		orders:    orders,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// CreateCheckout prices requested items from the catalog, opens a checkout session
// and records a PENDING order for it. Failing to record the order does not fail the checkout.
func (cs *CheckoutService) CreateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, models.ErrEmptyCheckout
	}

	ids := make([]int64, 0, len(req.Items))
	seen := make(map[int64]struct{}, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, models.ErrEmptyCheckout
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := cs.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	if len(products) != len(ids) {
		return nil, models.ErrProductNotFound
	}

	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	orderID := cs.newID()

	lineItems := make([]models.SessionLineItem, 0, len(req.Items))
	orderItems := make([]models.OrderItem, 0, len(req.Items))

	for _, item := range req.Items {
		product := byID[item.ProductID]

		lineItems = append(lineItems, sessionLineItem(product, item.Quantity))

		productID := product.ID
		orderItems = append(orderItems, models.OrderItem{
			ProductID: &productID,
			Quantity:  item.Quantity,
			Price:     product.UnitAmount(),
			Title:     product.Title,
			Subtitle:  product.Subtitle,
		})
	}

	params := models.SessionParams{
		OrderID:    orderID,
		LineItems:  lineItems,
		SuccessURL: cs.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  cs.baseURL + "/cart",
	}
	if req.Customer != nil {
		params.CustomerEmail = req.Customer.Email
		params.ClientRef = req.Customer.UserID
	}

	session, err := cs.processor.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	order := &models.Order{
		ID:        orderID,
		SessionID: session.ID,
		Total:     models.OrderTotal(orderItems),
		Status:    models.OrderStatusPending,
		Items:     orderItems,
	}
	if req.Customer != nil {
		order.CustomerEmail = req.Customer.Email
		order.UserID = userRef(req.Customer.UserID)
	}

	if _, err := cs.orders.CreateOrder(ctx, order); err != nil {
		// the session completion event reconstructs the order
		cs.logger.Warn("pending order not created",
			zap.String("session_id", session.ID),
			zap.String("order_id", orderID),
			zap.Error(err))
	} else {
		cs.logger.Info("pending order created",
			zap.String("session_id", session.ID),
			zap.String("order_id", orderID),
			zap.Int64("total", order.Total))
	}

	return &models.CheckoutResult{
		SessionID: session.ID,
		URL:       session.URL,
		OrderID:   orderID,
	}, nil
}

// sessionLineItem references a registered processor price when there is one
func sessionLineItem(product models.Product, quantity int64) models.SessionLineItem {
	if product.DefaultPrice != nil && isProcessorPrice(product.DefaultPrice.StripePriceID) {
		return models.SessionLineItem{
			PriceRef: product.DefaultPrice.StripePriceID,
			Quantity: quantity,
		}
	}

	return models.SessionLineItem{
		Identifier:  product.Identifier,
		Name:        product.Title,
		Description: product.Subtitle,
		UnitAmount:  product.UnitAmount(),
		Quantity:    quantity,
	}
}

// isProcessorPrice reports whether price id was issued by the processor,
// seeded placeholder prices carry a _default marker
func isProcessorPrice(priceID string) bool {
	return strings.HasPrefix(priceID, "price_") && !strings.Contains(priceID, "_default")
}
