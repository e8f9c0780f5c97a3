package handler

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
	"io"
	"net/http"
)

//go:generate mockgen -source=cart.go -destination=mocks/cart.go -package=mocks

// CartService is interface for shopping cart of signed-in users
type CartService interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	AddToCart(ctx context.Context, userID string, line models.CartLine) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID string, line models.CartLine) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, identifier string) (*models.Cart, error)
	MergeGuestCart(ctx context.Context, userID string, lines []models.CartLine) (*models.Cart, error)
}

// CartHandler represents HTTP handler for cart requests
type CartHandler struct {
	svc    CartService
	logger *zap.Logger
}

// NewCartHandler creates new CartHandler instance
func NewCartHandler(svc CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		svc:    svc,
		logger: logger,
	}
}

type cartLineRequest struct {
	Identifier string `json:"identifier"`
	Quantity   int64  `json:"quantity"`
}

type cartQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

type mergeCartRequest struct {
	Items []cartLineRequest `json:"items"`
}

type cartItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Quantity  int64           `json:"quantity"`
	Subtotal  int64           `json:"subtotal"`
	Product   productResponse `json:"product"`
}

type cartResponse struct {
	ID     int64              `json:"id"`
	UserID string             `json:"userId"`
	Items  []cartItemResponse `json:"items"`
	Total  int64              `json:"total"`
}

func newCartResponse(cart *models.Cart) cartResponse {
	resp := cartResponse{
		ID:     cart.ID,
		UserID: cart.UserID,
		Items:  make([]cartItemResponse, 0, len(cart.Items)),
		Total:  cart.Total(),
	}
	for _, item := range cart.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
			Product:   newProductResponse(item.Product),
		})
	}
	return resp
}

// writeCartResult writes cart or maps cart operation error to response
func (ch *CartHandler) writeCartResult(w http.ResponseWriter, op string, cart *models.Cart, err error) {
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDataNotFound):
			writeError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, models.ErrInvalidQuantity), errors.Is(err, models.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			ch.logger.Error(op, zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

// GetCart returns user cart
// 200 — успешная обработка запроса;
// 401 — пользователь не авторизован;
// 500 — внутренняя ошибка сервера.
func (ch *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		cart, err := ch.svc.GetCart(r.Context(), payload.UserID)
		ch.writeCartResult(w, "get cart", cart, err)
	}
}

// AddItem adds product quantity to user cart
// 200 — товар добавлен в корзину;
// 400 — неверный формат запроса;
// 401 — пользователь не авторизован;
// 404 — товар не найден;
// 500 — внутренняя ошибка сервера.
func (ch *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		payload, ok := getAuthPayload(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		if err != nil || len(body) == 0 {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if err := validateBody(cartItemRequestSchema, body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req cartLineRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		cart, err := ch.svc.AddToCart(r.Context(), payload.UserID, models.CartLine{Identifier: req.Identifier, Quantity: req.Quantity})
		ch.writeCartResult(w, "add cart item", cart, err)
	}
}

// UpdateItem sets product quantity in user cart, zero quantity removes the product
// 200 — количество обновлено;
// 400 — неверный формат запроса;
// 401 — пользователь не авторизован;
// 404 — товар не найден;
// 500 — внутренняя ошибка сервера.
func (ch *CartHandler) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		payload, ok := getAuthPayload(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		if err != nil || len(body) == 0 {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if err := validateBody(cartQuantityRequestSchema, body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req cartQuantityRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		line := models.CartLine{Identifier: chi.URLParam(r, "identifier"), Quantity: req.Quantity}
		cart, err := ch.svc.UpdateItem(r.Context(), payload.UserID, line)
		ch.writeCartResult(w, "update cart item", cart, err)
	}
}

// RemoveItem deletes product from user cart
// 200 — товар удален из корзины;
// 401 — пользователь не авторизован;
// 500 — внутренняя ошибка сервера.
func (ch *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		cart, err := ch.svc.RemoveItem(r.Context(), payload.UserID, chi.URLParam(r, "identifier"))
		ch.writeCartResult(w, "remove cart item", cart, err)
	}
}

// MergeGuestCart adds items collected before sign-in to user cart
// 200 — корзины объединены;
// 400 — неверный формат запроса;
// 401 — пользователь не авторизован;
// 500 — внутренняя ошибка сервера.
func (ch *CartHandler) MergeGuestCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		payload, ok := getAuthPayload(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		if err != nil || len(body) == 0 {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if err := validateBody(mergeCartRequestSchema, body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req mergeCartRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		lines := make([]models.CartLine, 0, len(req.Items))
		for _, item := range req.Items {
			lines = append(lines, models.CartLine{Identifier: item.Identifier, Quantity: item.Quantity})
		}

		cart, err := ch.svc.MergeGuestCart(r.Context(), payload.UserID, lines)
		ch.writeCartResult(w, "merge guest cart", cart, err)
	}
}
