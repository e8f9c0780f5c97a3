package service

import (
	"context"
	"errors"
	"github.com/rookgm/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestCatalogService_ListProducts(t *testing.T) {
	svc := NewCatalogService(testCatalog())

	got, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "product-y", got[0].Identifier)
}

func TestCatalogService_GetProduct(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		fail       error
		wantID     int64
		wantErr    error
	}{
		{name: "known_identifier", identifier: "product-x", wantID: 1},
		{name: "unknown_identifier", identifier: "product-z", wantErr: models.ErrDataNotFound},
		{name: "repository_error", identifier: "product-x", fail: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := testCatalog()
			catalog.fail = tt.fail
			svc := NewCatalogService(catalog)

			got, err := svc.GetProduct(context.Background(), tt.identifier)
			if tt.fail != nil {
				assert.ErrorIs(t, err, tt.fail)
				return
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestCatalogService_GetProducts(t *testing.T) {
	svc := NewCatalogService(testCatalog())

	got, err := svc.GetProducts(context.Background(), []string{"product-y", "product-z", "product-x", "product-y"})
	require.NoError(t, err)

	var identifiers []string
	for _, p := range got {
		identifiers = append(identifiers, p.Identifier)
	}
	assert.Equal(t, []string{"product-y", "product-x"}, identifiers)

	got, err = svc.GetProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
