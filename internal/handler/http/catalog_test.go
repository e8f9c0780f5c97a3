package handler

import (
	"encoding/json"
	"errors"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/rookgm/storefront/internal/handler/http/mocks"
	"github.com/rookgm/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testProduct() models.Product {
	stripeProductID := "prod_x"
	return models.Product{
		ID:              1,
		Identifier:      "product-x",
		Title:           "Product X",
		Subtitle:        "x",
		Price:           400,
		StripeProductID: &stripeProductID,
		DefaultPrice:    &models.Price{ID: 10, ProductID: 1, StripePriceID: "price_x", Amount: 500, Currency: "eur", IsActive: true, IsDefault: true},
		Prices: []models.Price{
			{ID: 10, ProductID: 1, StripePriceID: "price_x", Amount: 500, Currency: "eur", IsActive: true, IsDefault: true},
			{ID: 11, ProductID: 1, StripePriceID: "price_x_sale", Amount: 450, Currency: "eur", IsActive: true},
		},
	}
}

func TestCatalogHandler_ListProducts(t *testing.T) {
	stripeProductID := "prod_x"

	tests := []struct {
		name           string
		query          string
		setup          func(t *testing.T) *mocks.MockCatalogService
		wantStatusCode int
		wantBody       []productResponse
	}{
		{
			// 200 — успешная обработка запроса.
			name: "whole_catalog_return_200",
			setup: func(t *testing.T) *mocks.MockCatalogService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCatalogService(ctrl)
				svcMock.EXPECT().ListProducts(gomock.Any()).Return([]models.Product{testProduct()}, nil).Times(1)
				svcMock.EXPECT().GetProducts(gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantBody: []productResponse{{
				ID:              1,
				Identifier:      "product-x",
				Title:           "Product X",
				Subtitle:        "x",
				Price:           500,
				StripeProductID: &stripeProductID,
				Prices: []priceResponse{
					{ID: 10, StripePriceID: "price_x", Amount: 500, Currency: "eur", IsDefault: true},
					{ID: 11, StripePriceID: "price_x_sale", Amount: 450, Currency: "eur"},
				},
			}},
		},
		{
			name:  "by_identifiers_return_200",
			query: "?identifiers=product-x,%20product-y,",
			setup: func(t *testing.T) *mocks.MockCatalogService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCatalogService(ctrl)
				svcMock.EXPECT().GetProducts(gomock.Any(), []string{"product-x", "product-y"}).Return([]models.Product{}, nil).Times(1)
				svcMock.EXPECT().ListProducts(gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantBody:       []productResponse{},
		},
		{
			// 400 — пустой список идентификаторов.
			name:  "empty_identifiers_return_400",
			query: "?identifiers=,",
			setup: func(t *testing.T) *mocks.MockCatalogService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCatalogService(ctrl)
				svcMock.EXPECT().GetProducts(gomock.Any(), gomock.Any()).Times(0)
				svcMock.EXPECT().ListProducts(gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 500 — внутренняя ошибка сервера.
			name: "internal_error_return_500",
			setup: func(t *testing.T) *mocks.MockCatalogService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCatalogService(ctrl)
				svcMock.EXPECT().ListProducts(gomock.Any()).Return(nil, errors.New("db down")).Times(1)
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products"+tt.query, nil)
			w := httptest.NewRecorder()

			handler := NewCatalogHandler(tt.setup(t), zap.NewNop())
			h := handler.ListProducts()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.wantBody != nil {
				var got []productResponse
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
				if diff := cmp.Diff(tt.wantBody, got); diff != "" {
					t.Errorf("body mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestCatalogHandler_GetProduct(t *testing.T) {
	tests := []struct {
		name           string
		setup          func(t *testing.T) *mocks.MockCatalogService
		wantStatusCode int
	}{
		{
			name: "known_product_return_200",
			setup: func(t *testing.T) *mocks.MockCatalogService {
				ctrl := gomock.NewController(t)

				product := testProduct()
				svcMock := mocks.NewMockCatalogService(ctrl)
				svcMock.EXPECT().GetProduct(gomock.Any(), "product-x").Return(&product, nil).Times(1)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "missing_product_return_404",
			setup: func(t *testing.T) *mocks.MockCatalogService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCatalogService(ctrl)
				svcMock.EXPECT().GetProduct(gomock.Any(), "product-x").Return(nil, models.ErrDataNotFound).Times(1)
				return svcMock
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "internal_error_return_500",
			setup: func(t *testing.T) *mocks.MockCatalogService {
				ctrl := gomock.NewController(t)

				svcMock := mocks.NewMockCatalogService(ctrl)
				svcMock.EXPECT().GetProduct(gomock.Any(), "product-x").Return(nil, errors.New("db down")).Times(1)
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products/product-x", nil)
			req = withURLParam(req, "identifier", "product-x")
			w := httptest.NewRecorder()

			handler := NewCatalogHandler(tt.setup(t), zap.NewNop())
			h := handler.GetProduct()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.wantStatusCode == http.StatusOK {
				var got productResponse
				require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
				assert.Equal(t, "product-x", got.Identifier)
				assert.Len(t, got.Prices, 2)
			}
		})
	}
}
