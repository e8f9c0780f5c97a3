package handler

import (
	"context"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/rookgm/storefront/internal/models"
	"go.uber.org/zap"
	"net/http"
	"strings"
)

//go:generate mockgen -source=catalog.go -destination=mocks/catalog.go -package=mocks

// CatalogService is interface for catalog reads
type CatalogService interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, identifier string) (*models.Product, error)
	GetProducts(ctx context.Context, identifiers []string) ([]models.Product, error)
}

// CatalogHandler represents HTTP handler for catalog requests
type CatalogHandler struct {
	svc    CatalogService
	logger *zap.Logger
}

// NewCatalogHandler creates new CatalogHandler instance
func NewCatalogHandler(svc CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		svc:    svc,
		logger: logger,
	}
}

type priceResponse struct {
	ID            int64  `json:"id"`
	StripePriceID string `json:"stripePriceId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	IsDefault     bool   `json:"isDefault"`
}

type productResponse struct {
	ID              int64           `json:"id"`
	Identifier      string          `json:"identifier"`
	Title           string          `json:"title"`
	Subtitle        string          `json:"subtitle"`
	Price           int64           `json:"price"`
	StripeProductID *string         `json:"stripeProductId"`
	Prices          []priceResponse `json:"prices"`
}

func newProductResponse(product models.Product) productResponse {
	resp := productResponse{
		ID:              product.ID,
		Identifier:      product.Identifier,
		Title:           product.Title,
		Subtitle:        product.Subtitle,
		Price:           product.UnitAmount(),
		StripeProductID: product.StripeProductID,
		Prices:          make([]priceResponse, 0, len(product.Prices)),
	}
	for _, price := range product.Prices {
		resp.Prices = append(resp.Prices, priceResponse{
			ID:            price.ID,
			StripePriceID: price.StripePriceID,
			Amount:        price.Amount,
			Currency:      price.Currency,
			IsDefault:     price.IsDefault,
		})
	}
	return resp
}

func newProductsResponse(products []models.Product) []productResponse {
	resp := make([]productResponse, 0, len(products))
	for _, product := range products {
		resp = append(resp, newProductResponse(product))
	}
	return resp
}

// parseIdentifiers splits comma separated identifiers query parameter
func parseIdentifiers(v string) []string {
	var res []string
	for _, identifier := range strings.Split(v, ",") {
		if identifier = strings.TrimSpace(identifier); identifier != "" {
			res = append(res, identifier)
		}
	}
	return res
}

// ListProducts returns catalog, or products named by identifiers query parameter
// 200 — успешная обработка запроса;
// 400 — пустой список идентификаторов;
// 500 — внутренняя ошибка сервера.
func (ch *CatalogHandler) ListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			products []models.Product
			err      error
		)

		if r.URL.Query().Has("identifiers") {
			identifiers := parseIdentifiers(r.URL.Query().Get("identifiers"))
			if len(identifiers) == 0 {
				writeError(w, http.StatusBadRequest, "Invalid query parameters")
				return
			}
			products, err = ch.svc.GetProducts(r.Context(), identifiers)
		} else {
			products, err = ch.svc.ListProducts(r.Context())
		}
		if err != nil {
			ch.logger.Error("list products", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		writeJSON(w, http.StatusOK, newProductsResponse(products))
	}
}

// GetProduct returns product by catalog identifier
// 200 — успешная обработка запроса;
// 404 — товар не найден;
// 500 — внутренняя ошибка сервера.
func (ch *CatalogHandler) GetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := ch.svc.GetProduct(r.Context(), chi.URLParam(r, "identifier"))
		if err != nil {
			if errors.Is(err, models.ErrDataNotFound) {
				writeError(w, http.StatusNotFound, "Product not found")
				return
			}
			ch.logger.Error("get product", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		writeJSON(w, http.StatusOK, newProductResponse(*product))
	}
}
