package handler

import (
	"encoding/json"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
	"io"
	"net/http"
)

// AdminHandler represents HTTP handler for order administration
type AdminHandler struct {
	svc    OrderService
	logger *zap.Logger
}

// NewAdminHandler creates new AdminHandler instance
func NewAdminHandler(svc OrderService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		svc:    svc,
		logger: logger,
	}
}

type orderStatsResponse struct {
	TotalOrders     int   `json:"totalOrders"`
	TotalRevenue    int64 `json:"totalRevenue"`
	PendingOrders   int   `json:"pendingOrders"`
	CompletedOrders int   `json:"completedOrders"`
	RecentOrders    int   `json:"recentOrders"`
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// ListOrders returns page of all orders
func (ah *AdminHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseOrderFilter(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid query parameters")
			return
		}
		filter.CustomerEmail = r.URL.Query().Get("email")

		page, err := ah.svc.ListOrders(r.Context(), filter)
		if err != nil {
			if errors.Is(err, models.ErrInvalidOrderStatus) {
				writeError(w, http.StatusBadRequest, "Invalid order status")
				return
			}
			ah.logger.Error("list orders", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		writeJSON(w, http.StatusOK, newOrderPageResponse(page))
	}
}

// OrderStats returns order summary
func (ah *AdminHandler) OrderStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := ah.svc.GetOrderStats(r.Context())
		if err != nil {
			ah.logger.Error("order stats", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		writeJSON(w, http.StatusOK, orderStatsResponse{
			TotalOrders:     stats.TotalOrders,
			TotalRevenue:    stats.TotalRevenue,
			PendingOrders:   stats.PendingOrders,
			CompletedOrders: stats.CompletedOrders,
			RecentOrders:    stats.RecentOrders,
		})
	}
}

// UpdateOrderStatus sets order status
// 200 — статус обновлён;
// 400 — неверный статус;
// 404 — заказ не найден;
// 409 — заказ нельзя вернуть в статус PENDING;
// 500 — внутренняя ошибка сервера.
func (ah *AdminHandler) UpdateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		if err != nil || len(body) == 0 {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if err := validateBody(orderStatusRequestSchema, body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req orderStatusRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		orderID := chi.URLParam(r, "id")

		err = ah.svc.UpdateOrderStatus(r.Context(), orderID, models.OrderStatus(req.Status))
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidOrderStatus):
				writeError(w, http.StatusBadRequest, "Invalid order status")
			case errors.Is(err, models.ErrDataNotFound):
				writeError(w, http.StatusNotFound, "Order not found")
			case errors.Is(err, models.ErrStatusTransition):
				writeError(w, http.StatusConflict, "Order status transition not allowed")
			default:
				ah.logger.Error("update order status", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, orderStatusRequest{Status: req.Status})
	}
}
