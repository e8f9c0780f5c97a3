package service

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
)

// ReconcileRepository is interface for order data used by reconciliation
type ReconcileRepository interface {
	// GetOrderBySessionID returns order by checkout session id
	GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	// GetOrderByPaymentRef returns first order matching payment id, session id or order id
	GetOrderByPaymentRef(ctx context.Context, ref models.PaymentRef) (*models.Order, error)
	// GetOrderItems returns items of order
	GetOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	// CreateOrder inserts order and all its items in one transaction
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	// MarkOrderPaid moves PENDING order to PAID, reports false if order was not PENDING
	MarkOrderPaid(ctx context.Context, orderID string, paid models.PaidDetails) (bool, error)
	// FillCustomer sets customer details of order without customer e-mail
	FillCustomer(ctx context.Context, orderID, email, name string) (bool, error)
	// ClaimNotification marks notification as sent, reports false if it was claimed before
	// or order has no recipient
	ClaimNotification(ctx context.Context, orderID string, n models.Notification) (bool, error)
}

// ProductLookup maps payment processor products back to catalog
type ProductLookup interface {
	FindByStripeProductID(ctx context.Context, stripeProductID string) (*models.Product, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.Product, error)
}

// LineItemLister fetches line items of a checkout session
type LineItemLister interface {
	ListLineItems(ctx context.Context, sessionID string) ([]models.ProcessorLineItem, error)
}

// Notifier sends customer notifications
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
	SendPaymentConfirmation(ctx context.Context, order *models.Order) error
	SendPaymentFailed(ctx context.Context, failure *models.PaymentFailed) error
}

const defaultCustomerName = "Client"

// ReconcileService keeps orders consistent with payment processor events
type ReconcileService struct {
	orders    ReconcileRepository
	products  ProductLookup
	processor LineItemLister
	notifier  Notifier
	logger    *zap.Logger
	newID     func() string
}

// NewReconcileService creates new ReconcileService instance
func NewReconcileService(orders ReconcileRepository, products ProductLookup, processor LineItemLister, notifier Notifier, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{
		orders:    orders,
		products:  products,
		processor: processor,
		notifier:  notifier,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Reconcile applies one payment event to the order ledger.
// It is safe to call concurrently and repeatedly with the same event.
func (rs *ReconcileService) Reconcile(ctx context.Context, event models.PaymentEvent) models.Outcome {
	logger := rs.logger.With(zap.String("event_id", event.ID), zap.String("event_kind", string(event.Kind)))

	var outcome models.Outcome

	switch event.Kind {
	case models.EventSessionCompleted:
		outcome = rs.sessionCompleted(ctx, logger, event.Session)
	case models.EventPaymentIntentSucceeded, models.EventChargeSucceeded:
		outcome = rs.paymentSucceeded(ctx, logger, event.Payment)
	case models.EventPaymentIntentFailed:
		outcome = rs.paymentFailed(ctx, logger, event.Failure)
	default:
		outcome = models.Noop("", "unhandled event kind")
	}

	fields := []zap.Field{
		zap.Stringer("result", outcome.Result),
		zap.String("order_id", outcome.OrderID),
		zap.String("detail", outcome.Detail),
	}
	switch outcome.Result {
	case models.ResultRetryable, models.ResultFatal:
		logger.Error("event failed", append(fields, zap.Error(outcome.Err))...)
	default:
		logger.Info("event handled", fields...)
	}

	return outcome
}

// sessionCompleted handles the authoritative completion signal
func (rs *ReconcileService) sessionCompleted(ctx context.Context, logger *zap.Logger, s *models.SessionCompleted) models.Outcome {
	if s == nil {
		return models.Fatal("session completed without session", models.ErrMalformedEvent)
	}
	logger = logger.With(zap.String("session_id", s.SessionID))

	paid := models.PaidDetails{
		PaymentID:     s.PaymentID,
		CustomerEmail: s.CustomerEmail,
		CustomerName:  s.CustomerName,
	}

	order, err := rs.orders.GetOrderBySessionID(ctx, s.SessionID)
	switch {
	case err == nil:
		return rs.settle(ctx, logger, order, paid, true)
	case errors.Is(err, models.ErrDataNotFound):
		return rs.reconstruct(ctx, logger, s)
	default:
		return models.Retryable("find order by session", err)
	}
}

// paymentSucceeded handles advisory payment signals, it never creates orders
func (rs *ReconcileService) paymentSucceeded(ctx context.Context, logger *zap.Logger, p *models.PaymentSucceeded) models.Outcome {
	if p == nil {
		return models.Fatal("payment succeeded without payment", models.ErrMalformedEvent)
	}
	logger = logger.With(zap.String("payment_id", p.PaymentID))

	ref := models.PaymentRef{
		PaymentID: p.PaymentID,
		SessionID: p.SessionID,
		OrderID:   p.OrderID,
	}

	order, err := rs.orders.GetOrderByPaymentRef(ctx, ref)
	if err != nil {
		if errors.Is(err, models.ErrDataNotFound) {
			return models.Noop("", "no matching order, left to session completion")
		}
		return models.Retryable("find order by payment", err)
	}

	return rs.settle(ctx, logger, order, models.PaidDetails{PaymentID: p.PaymentID}, false)
}

// paymentFailed only notifies the customer
func (rs *ReconcileService) paymentFailed(ctx context.Context, logger *zap.Logger, f *models.PaymentFailed) models.Outcome {
	if f == nil {
		return models.Fatal("payment failed without payment", models.ErrMalformedEvent)
	}

	logger.Warn("payment failed",
		zap.String("payment_id", f.PaymentID),
		zap.String("reason", f.FailureReason))

	rs.notify(logger, models.NotificationPaymentFailed, func() error {
		return rs.notifier.SendPaymentFailed(ctx, f)
	})

	return models.Noop("", "payment failure notified")
}

// settle moves a PENDING order to PAID. Only the caller that wins the
// status gated update sends notifications right away.
func (rs *ReconcileService) settle(ctx context.Context, logger *zap.Logger, order *models.Order, paid models.PaidDetails, confirmOrder bool) models.Outcome {
	logger = logger.With(zap.String("order_id", order.ID))

	if order.Status != models.OrderStatusPending {
		return rs.settled(ctx, logger, order, paid, confirmOrder)
	}

	ok, err := rs.orders.MarkOrderPaid(ctx, order.ID, paid)
	if err != nil {
		return models.Retryable("mark order paid", err)
	}
	if !ok {
		current, err := rs.orders.GetOrderBySessionID(ctx, order.SessionID)
		if err != nil {
			return models.Retryable("refetch order settled concurrently", err)
		}
		return rs.settled(ctx, logger, current, paid, confirmOrder)
	}

	order.Status = models.OrderStatusPaid
	if paid.PaymentID != "" {
		order.PaymentID = &paid.PaymentID
	}
	if order.CustomerEmail == "" {
		order.CustomerEmail = paid.CustomerEmail
	}
	if order.CustomerName == "" {
		order.CustomerName = paid.CustomerName
	}

	rs.confirm(ctx, logger, order, confirmOrder)

	return models.Mutated(order.ID, "pending order paid")
}

// settled handles an order some other event already moved out of PENDING.
// Session completion fills customer details a guest checkout left blank and
// sends confirmations that had no recipient or were not sent yet.
func (rs *ReconcileService) settled(ctx context.Context, logger *zap.Logger, order *models.Order, paid models.PaidDetails, confirmOrder bool) models.Outcome {
	detail := "already processed with status " + string(order.Status)

	if !confirmOrder || !order.Status.Settled() {
		return models.Noop(order.ID, detail)
	}

	if order.CustomerEmail == "" && paid.CustomerEmail != "" {
		ok, err := rs.orders.FillCustomer(ctx, order.ID, paid.CustomerEmail, paid.CustomerName)
		if err != nil {
			return models.Retryable("fill customer details", err)
		}
		if !ok {
			// filled concurrently, that caller sends confirmations
			return models.Noop(order.ID, detail)
		}

		order.CustomerEmail = paid.CustomerEmail
		if order.CustomerName == "" {
			order.CustomerName = paid.CustomerName
		}
		detail += ", customer details filled"
		logger.Info("customer details filled", zap.String("customer_email", order.CustomerEmail))
	}

	rs.confirm(ctx, logger, order, true)

	return models.Noop(order.ID, detail)
}

// confirm sends confirmations of a PAID order. Each one is claimed on the order
// first, so it is sent once however many events reach this point.
func (rs *ReconcileService) confirm(ctx context.Context, logger *zap.Logger, order *models.Order, withOrder bool) {
	if order.CustomerEmail == "" {
		logger.Warn("confirmations deferred, order has no recipient")
		return
	}

	if withOrder && len(order.Items) == 0 {
		items, err := rs.orders.GetOrderItems(ctx, order.ID)
		if err != nil {
			logger.Error("load order items for confirmation", zap.Error(err))
			withOrder = false
		} else {
			order.Items = items
		}
	}

	if withOrder && rs.claim(ctx, logger, order.ID, models.NotificationOrderConfirmation) {
		rs.notify(logger, models.NotificationOrderConfirmation, func() error {
			return rs.notifier.SendOrderConfirmation(ctx, order)
		})
	}

	if rs.claim(ctx, logger, order.ID, models.NotificationPaymentConfirmation) {
		rs.notify(logger, models.NotificationPaymentConfirmation, func() error {
			return rs.notifier.SendPaymentConfirmation(ctx, order)
		})
	}
}

func (rs *ReconcileService) claim(ctx context.Context, logger *zap.Logger, orderID string, n models.Notification) bool {
	ok, err := rs.orders.ClaimNotification(ctx, orderID, n)
	if err != nil {
		logger.Error("claim notification", zap.String("notification", string(n)), zap.Error(err))
		return false
	}
	return ok
}

// reconstruct builds a PAID order from processor line items when no PENDING order exists
func (rs *ReconcileService) reconstruct(ctx context.Context, logger *zap.Logger, s *models.SessionCompleted) models.Outcome {
	lineItems, err := rs.processor.ListLineItems(ctx, s.SessionID)
	if err != nil {
		return models.Retryable("list session line items", err)
	}

	if len(lineItems) == 0 {
		return models.Noop("", "session has no line items")
	}

	items := make([]models.OrderItem, 0, len(lineItems))

	for _, li := range lineItems {
		product, err := rs.findProduct(ctx, li)
		if err != nil {
			return models.Retryable("map line item to product", err)
		}
		if product == nil {
			logger.Warn("line item skipped, no matching product",
				zap.String("stripe_product_id", li.ProductID),
				zap.String("identifier", li.Identifier),
				zap.String("name", li.Name))
			continue
		}

		items = append(items, snapshotItem(product, li))
	}

	if len(items) == 0 {
		return models.Fatal("no line item maps to a catalog product", models.ErrProductNotFound)
	}

	order := &models.Order{
		ID:            rs.newID(),
		SessionID:     s.SessionID,
		Total:         models.OrderTotal(items),
		Status:        models.OrderStatusPaid,
		CustomerEmail: s.CustomerEmail,
		CustomerName:  s.CustomerName,
		UserID:        userRef(s.ClientRef),
		Items:         items,
	}
	if s.PaymentID != "" {
		paymentID := s.PaymentID
		order.PaymentID = &paymentID
	}
	if order.CustomerName == "" {
		order.CustomerName = defaultCustomerName
	}

	created, err := rs.orders.CreateOrder(ctx, order)
	if err != nil {
		if !errors.Is(err, models.ErrConflictData) {
			return models.Retryable("create order", err)
		}

		// someone else created the order for this session first
		existing, err := rs.orders.GetOrderBySessionID(ctx, s.SessionID)
		if err != nil {
			if errors.Is(err, models.ErrDataNotFound) {
				return models.Fatal("order conflicts on payment id", models.ErrConflictData)
			}
			return models.Retryable("refetch order after conflict", err)
		}

		return rs.settle(ctx, logger, existing, models.PaidDetails{
			PaymentID:     s.PaymentID,
			CustomerEmail: s.CustomerEmail,
			CustomerName:  s.CustomerName,
		}, true)
	}

	logger.Info("order reconstructed",
		zap.String("order_id", created.ID),
		zap.Int64("total", created.Total),
		zap.Int("items", len(created.Items)))

	rs.confirm(ctx, logger.With(zap.String("order_id", created.ID)), created, true)

	return models.Mutated(created.ID, "order reconstructed")
}

// findProduct maps processor product by its id first, then by catalog identifier.
// Returns nil product when nothing matches.
func (rs *ReconcileService) findProduct(ctx context.Context, li models.ProcessorLineItem) (*models.Product, error) {
	if li.ProductID != "" {
		product, err := rs.products.FindByStripeProductID(ctx, li.ProductID)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, models.ErrDataNotFound) {
			return nil, err
		}
	}

	if li.Identifier != "" {
		product, err := rs.products.FindByIdentifier(ctx, li.Identifier)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, models.ErrDataNotFound) {
			return nil, err
		}
	}

	return nil, nil
}

// notify runs notification, failures are logged and never propagated
func (rs *ReconcileService) notify(logger *zap.Logger, n models.Notification, send func() error) {
	if err := send(); err != nil {
		logger.Error("notification failed", zap.String("notification", string(n)), zap.Error(err))
		return
	}
	logger.Debug("notification sent", zap.String("notification", string(n)))
}

func snapshotItem(product *models.Product, li models.ProcessorLineItem) models.OrderItem {
	productID := product.ID

	item := models.OrderItem{
		ProductID: &productID,
		Quantity:  li.Quantity,
		Price:     li.UnitAmount,
		Title:     product.Title,
		Subtitle:  product.Subtitle,
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if item.Price == 0 {
		item.Price = product.UnitAmount()
	}
	if item.Title == "" {
		item.Title = li.Name
	}
	if item.Subtitle == "" {
		item.Subtitle = li.Description
	}

	return item
}

// userRef returns client reference as user id when it is one
func userRef(clientRef string) *string {
	if _, err := uuid.Parse(clientRef); err != nil {
		return nil
	}
	return &clientRef
}
