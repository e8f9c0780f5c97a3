package handler

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
	"io"
	"net/http"
)

//go:generate mockgen -source=checkout.go -destination=mocks/checkout.go -package=mocks

const maxRequestBodyBytes = 1 << 20

// CheckoutService starts checkout sessions
type CheckoutService interface {
	CreateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResult, error)
}

// CheckoutHandler represents HTTP handler for checkout requests
type CheckoutHandler struct {
	svc    CheckoutService
	logger *zap.Logger
}

// NewCheckoutHandler creates new CheckoutHandler instance
func NewCheckoutHandler(svc CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		svc:    svc,
		logger: logger,
	}
}

type checkoutItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

type checkoutRequest struct {
	Items []checkoutItemRequest `json:"items"`
}

type checkoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CreateCheckout creates checkout session for cart items
// 200 — сессия создана;
// 400 — неверный формат запроса или товар не найден;
// 500 — внутренняя ошибка сервера.
func (ch *CheckoutHandler) CreateCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		if err != nil || len(body) == 0 {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		if err := validateBody(checkoutRequestSchema, body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req checkoutRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		checkout := models.CheckoutRequest{
			Items: make([]models.CheckoutItem, 0, len(req.Items)),
		}
		for _, item := range req.Items {
			checkout.Items = append(checkout.Items, models.CheckoutItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		if payload, ok := getAuthPayload(r.Context()); ok {
			checkout.Customer = payload
		}

		res, err := ch.svc.CreateCheckout(r.Context(), checkout)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrProductNotFound):
				writeError(w, http.StatusBadRequest, "Some products not found")
			case errors.Is(err, models.ErrEmptyCheckout):
				writeError(w, http.StatusBadRequest, "Cart is empty")
			default:
				ch.logger.Error("create checkout", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Failed to create checkout session")
			}
			return
		}

		writeJSON(w, http.StatusOK, checkoutResponse{
			URL:       res.URL,
			SessionID: res.SessionID,
		})
	}
}
