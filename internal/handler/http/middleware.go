package handler

import (
	"context"
	"encoding/json"
	"github.com/rookgm/storefront/internal/middleware"
	"github.com/rookgm/storefront/internal/models"
	"net/http"
)

// getAuthPayload extracts authorization token payload from context
func getAuthPayload(ctx context.Context) (*models.TokenPayload, bool) {
	return middleware.AuthPayload(ctx)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as JSON response with status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return
	}
}

// writeError writes JSON error response
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
