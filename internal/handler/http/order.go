package handler

import (
	"context"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

//go:generate mockgen -source=order.go -destination=mocks/order.go -package=mocks

// OrderService is interface for order queries and admin updates
type OrderService interface {
	ListUserOrders(ctx context.Context, userID string, filter models.OrderFilter) (*models.OrderPage, error)
	GetUserOrder(ctx context.Context, userID, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) (*models.OrderPage, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	GetOrderStats(ctx context.Context) (models.OrderStats, error)
}

// OrderHandler represents HTTP handler for buyer order requests
type OrderHandler struct {
	svc    OrderService
	logger *zap.Logger
}

// NewOrderHandler creates new OrderHandler instance
func NewOrderHandler(svc OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		svc:    svc,
		logger: logger,
	}
}

type orderItemResponse struct {
	ID        uint64 `json:"id"`
	ProductID *int64 `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"`
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	SessionID     string              `json:"sessionId"`
	PaymentID     *string             `json:"paymentId"`
	Total         int64               `json:"total"`
	Status        string              `json:"status"`
	CustomerEmail string              `json:"customerEmail"`
	CustomerName  string              `json:"customerName"`
	CreatedAt     string              `json:"createdAt"`
	UpdatedAt     string              `json:"updatedAt"`
	Items         []orderItemResponse `json:"items"`
}

type paginationResponse struct {
	TotalCount  int `json:"totalCount"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}

type orderPageResponse struct {
	Orders     []orderResponse    `json:"orders"`
	Pagination paginationResponse `json:"pagination"`
}

func newOrderResponse(order models.Order) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		SessionID:     order.SessionID,
		PaymentID:     order.PaymentID,
		Total:         order.Total,
		Status:        string(order.Status),
		CustomerEmail: order.CustomerEmail,
		CustomerName:  order.CustomerName,
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     order.UpdatedAt.Format(time.RFC3339),
		Items:         make([]orderItemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Title:     item.Title,
			Subtitle:  item.Subtitle,
		})
	}
	return resp
}

func newOrderPageResponse(page *models.OrderPage) orderPageResponse {
	resp := orderPageResponse{
		Orders: make([]orderResponse, 0, len(page.Orders)),
		Pagination: paginationResponse{
			TotalCount:  page.TotalCount,
			TotalPages:  page.TotalPages,
			CurrentPage: page.CurrentPage,
		},
	}
	for _, order := range page.Orders {
		resp.Orders = append(resp.Orders, newOrderResponse(order))
	}
	return resp
}

// parseOrderFilter reads page, limit, status, from and to query parameters
func parseOrderFilter(q url.Values) (models.OrderFilter, error) {
	filter := models.OrderFilter{
		Status: models.OrderStatus(q.Get("status")),
	}

	var err error
	if v := q.Get("page"); v != "" {
		if filter.Page, err = strconv.Atoi(v); err != nil || filter.Page < 1 {
			return filter, errInvalidRequest
		}
	}
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 1 {
			return filter, errInvalidRequest
		}
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errInvalidRequest
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errInvalidRequest
		}
		filter.To = &to
	}

	return filter, nil
}

// ListUserOrders returns page of user orders
// 200 — успешная обработка запроса;
// 400 — неверные параметры запроса;
// 401 — пользователь не авторизован;
// 500 — внутренняя ошибка сервера.
func (oh *OrderHandler) ListUserOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		filter, err := parseOrderFilter(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid query parameters")
			return
		}

		page, err := oh.svc.ListUserOrders(r.Context(), payload.UserID, filter)
		if err != nil {
			if errors.Is(err, models.ErrInvalidOrderStatus) {
				writeError(w, http.StatusBadRequest, "Invalid order status")
				return
			}
			oh.logger.Error("list user orders", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		writeJSON(w, http.StatusOK, newOrderPageResponse(page))
	}
}

// GetUserOrder returns user order by id
// 200 — успешная обработка запроса;
// 401 — пользователь не авторизован;
// 404 — заказ не найден;
// 500 — внутренняя ошибка сервера.
func (oh *OrderHandler) GetUserOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		order, err := oh.svc.GetUserOrder(r.Context(), payload.UserID, chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, models.ErrDataNotFound) {
				writeError(w, http.StatusNotFound, "Order not found")
				return
			}
			oh.logger.Error("get user order", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		writeJSON(w, http.StatusOK, newOrderResponse(*order))
	}
}
