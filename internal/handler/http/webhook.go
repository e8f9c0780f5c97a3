package handler

import (
	"context"
	"errors"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
	"io"
	"net/http"
)

//go:generate mockgen -source=webhook.go -destination=mocks/webhook.go -package=mocks

const maxEventBodyBytes = 65536

// EventVerifier checks event signature and decodes the event
type EventVerifier interface {
	VerifyEvent(payload []byte, signature string) (models.PaymentEvent, error)
}

// Reconciler applies payment events to orders
type Reconciler interface {
	Reconcile(ctx context.Context, event models.PaymentEvent) models.Outcome
}

// WebhookHandler represents HTTP handler for payment processor events
type WebhookHandler struct {
	verifier   EventVerifier
	reconciler Reconciler
	logger     *zap.Logger
}

// NewWebhookHandler creates new WebhookHandler instance
func NewWebhookHandler(verifier EventVerifier, reconciler Reconciler, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		reconciler: reconciler,
		logger:     logger,
	}
}

type receivedResponse struct {
	Received bool `json:"received"`
}

// HandleEvent verifies and reconciles one processor event
// 200 — событие обработано или не требует обработки;
// 400 — неверная подпись или тело запроса;
// 500 — временная ошибка, платёжная система повторит доставку.
func (wh *WebhookHandler) HandleEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBodyBytes))
		if err != nil {
			wh.logger.Warn("read event body", zap.Error(err))
			writeError(w, http.StatusBadRequest, "Invalid payload")
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if signature == "" {
			writeError(w, http.StatusBadRequest, "Missing signature")
			return
		}

		event, err := wh.verifier.VerifyEvent(payload, signature)
		if err != nil {
			if errors.Is(err, models.ErrMalformedEvent) {
				// redelivery of the same body cannot succeed
				wh.logger.Error("malformed event acknowledged", zap.Error(err))
				writeJSON(w, http.StatusOK, receivedResponse{Received: true})
				return
			}
			wh.logger.Warn("event signature rejected", zap.Error(err))
			writeError(w, http.StatusBadRequest, "Invalid signature")
			return
		}

		outcome := wh.reconciler.Reconcile(r.Context(), event)
		if outcome.Result == models.ResultRetryable {
			writeError(w, http.StatusInternalServerError, "Webhook handler failed")
			return
		}

		writeJSON(w, http.StatusOK, receivedResponse{Received: true})
	}
}
