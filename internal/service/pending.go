package service

import (
	"context"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
	"time"
)

const pendingBatchSize = 100

// PendingRepository is interface for stale PENDING orders
type PendingRepository interface {
	// GetStalePendingOrders returns PENDING orders created before given time
	GetStalePendingOrders(ctx context.Context, before time.Time, limit int) ([]models.Order, error)
	// CancelPendingOrder moves PENDING order to CANCELLED
	CancelPendingOrder(ctx context.Context, orderID string) (bool, error)
}

// SessionReader returns processor view of a checkout session
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*models.SessionState, error)
}

// EventReconciler applies payment events
type EventReconciler interface {
	Reconcile(ctx context.Context, event models.PaymentEvent) models.Outcome
}

// PendingService resolves PENDING orders whose webhook never arrived
type PendingService struct {
	repo       PendingRepository
	sessions   SessionReader
	reconciler EventReconciler
	staleAfter time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewPendingService creates new PendingService instance
func NewPendingService(repo PendingRepository, sessions SessionReader, reconciler EventReconciler, staleAfter time.Duration, logger *zap.Logger) *PendingService {
	return &PendingService{
		repo:       repo,
		sessions:   sessions,
		reconciler: reconciler,
		staleAfter: staleAfter,
		logger:     logger,
		now:        time.Now,
	}
}

// QueuePendingOrders writes stale PENDING orders to channel
func (ps *PendingService) QueuePendingOrders(ctx context.Context, orderCh chan<- models.Order) error {
	orders, err := ps.repo.GetStalePendingOrders(ctx, ps.now().Add(-ps.staleAfter), pendingBatchSize)
	if err != nil {
		return err
	}

	for _, order := range orders {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case orderCh <- order:
		}
	}

	return nil
}

// ResolvePendingOrders resolves orders from channel until it is closed or ctx is done
func (ps *PendingService) ResolvePendingOrders(ctx context.Context, orderCh <-chan models.Order) {
	for {
		select {
		case <-ctx.Done():
			ps.logger.Debug("pending resolver is done")
			return
		case order, ok := <-orderCh:
			if !ok {
				return
			}
			ps.ResolvePending(ctx, order)
		}
	}
}

// ResolvePending asks the processor about order session. A paid session goes through
// the same reconciliation as its webhook would, an expired one cancels the order.
func (ps *PendingService) ResolvePending(ctx context.Context, order models.Order) models.Outcome {
	logger := ps.logger.With(zap.String("order_id", order.ID), zap.String("session_id", order.SessionID))

	session, err := ps.sessions.GetSession(ctx, order.SessionID)
	if err != nil {
		logger.Error("get checkout session", zap.Error(err))
		return models.Retryable("get checkout session", err)
	}

	switch {
	case session.Status == models.SessionStatusComplete && session.PaymentStatus == models.SessionPaymentPaid:
		logger.Info("pending order paid without webhook")
		return ps.reconciler.Reconcile(ctx, models.PaymentEvent{
			ID:   "sweep_" + order.ID,
			Kind: models.EventSessionCompleted,
			Session: &models.SessionCompleted{
				SessionID:     session.ID,
				PaymentID:     session.PaymentIntentID,
				CustomerEmail: session.CustomerEmail,
				CustomerName:  session.CustomerName,
				ClientRef:     session.ClientRef,
				AmountTotal:   session.AmountTotal,
			},
		})

	case session.Status == models.SessionStatusExpired:
		ok, err := ps.repo.CancelPendingOrder(ctx, order.ID)
		if err != nil {
			logger.Error("cancel pending order", zap.Error(err))
			return models.Retryable("cancel pending order", err)
		}
		if !ok {
			return models.Noop(order.ID, "order left PENDING concurrently")
		}
		logger.Info("pending order cancelled, session expired")
		return models.Mutated(order.ID, "session expired")
	}

	logger.Debug("pending order still open", zap.String("session_status", session.Status))
	return models.Noop(order.ID, "session still open")
}
