package worker

import (
	"context"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
	"time"
)

// PendingService is interface for resolving stale PENDING orders
type PendingService interface {
	ResolvePendingOrders(ctx context.Context, orderCh <-chan models.Order)
	QueuePendingOrders(ctx context.Context, orderCh chan<- models.Order) error
}

// OrderProcessor is worker that periodically resolves PENDING orders the webhook never settled
type OrderProcessor struct {
	svc      PendingService
	interval time.Duration
	logger   *zap.Logger
}

// NewOrderProcessor create new order processor
func NewOrderProcessor(svc PendingService, interval time.Duration, logger *zap.Logger) *OrderProcessor {
	return &OrderProcessor{
		svc:      svc,
		interval: interval,
		logger:   logger,
	}
}

// ProcessOrders queues stale orders on every tick until ctx is done
func (op *OrderProcessor) ProcessOrders(ctx context.Context) {
	orders := make(chan models.Order, 10)

	done := make(chan struct{})
	go func() {
		defer close(done)
		op.svc.ResolvePendingOrders(ctx, orders)
	}()

	ticker := time.NewTicker(op.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-done
			op.logger.Debug("order processor is done")
			return
		case <-ticker.C:
			if err := op.svc.QueuePendingOrders(ctx, orders); err != nil && ctx.Err() == nil {
				op.logger.Error("queue pending orders", zap.Error(err))
			}
		}
	}
}
