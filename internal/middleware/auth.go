package middleware

import (
	"context"
	"github.com/rookgm/storefront/internal/models"
	"github.com/rookgm/storefront/internal/service"
	"net/http"
	"strings"
)

type contextKey int

const (
	contextKeyAuthPayload contextKey = iota
)

const authCookieName = "auth_token"

// WithAuthPayload returns context carrying authorization token payload
func WithAuthPayload(ctx context.Context, payload *models.TokenPayload) context.Context {
	return context.WithValue(ctx, contextKeyAuthPayload, payload)
}

// AuthPayload extracts authorization token payload from context
func AuthPayload(ctx context.Context) (*models.TokenPayload, bool) {
	payload, ok := ctx.Value(contextKeyAuthPayload).(*models.TokenPayload)
	return payload, ok && payload != nil
}

// tokenFromRequest gets token from auth cookie or bearer authorization header
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	parts := strings.Fields(header)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}

	return ""
}

// Auth verifies request token and passes its payload to the context
func Auth(ts service.TokenService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			payload, err := ts.VerifyToken(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthPayload(r.Context(), payload)))
		})
	}
}

// OptionalAuth passes payload of a valid token to the context and lets anonymous requests through
func OptionalAuth(ts service.TokenService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := tokenFromRequest(r); token != "" {
				if payload, err := ts.VerifyToken(token); err == nil {
					r = r.WithContext(WithAuthPayload(r.Context(), payload))
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose token payload has another role. Must run after Auth.
func RequireRole(role models.Role) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			payload, ok := AuthPayload(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if payload.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
