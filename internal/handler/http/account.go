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

//go:generate mockgen -source=account.go -destination=mocks/account.go -package=mocks

// AccountService is interface for profile management
type AccountService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID, name, avatarURL string) (*models.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// AccountHandler represents HTTP handler for account requests
type AccountHandler struct {
	svc    AccountService
	logger *zap.Logger
}

// NewAccountHandler creates new AccountHandler instance
func NewAccountHandler(svc AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		logger: logger,
	}
}

type profileRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type profileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
	Role      string `json:"role"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func newProfileResponse(user *models.User) profileResponse {
	return profileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Role:      string(user.Role),
	}
}

// GetProfile returns profile of current user
// 200 — успешная обработка запроса;
// 401 — пользователь не авторизован;
// 404 — пользователь не найден;
// 500 — внутренняя ошибка сервера.
func (ah *AccountHandler) GetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := ah.svc.GetProfile(r.Context(), payload.UserID)
		if err != nil {
			if errors.Is(err, models.ErrDataNotFound) {
				writeError(w, http.StatusNotFound, "User not found")
				return
			}
			ah.logger.Error("get profile", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		writeJSON(w, http.StatusOK, newProfileResponse(user))
	}
}

// UpdateProfile changes name and avatar of current user
// 200 — профиль обновлен;
// 400 — неверный формат запроса;
// 401 — пользователь не авторизован;
// 404 — пользователь не найден;
// 500 — внутренняя ошибка сервера.
func (ah *AccountHandler) UpdateProfile() http.HandlerFunc {
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
		if err := validateBody(profileRequestSchema, body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req profileRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		user, err := ah.svc.UpdateProfile(r.Context(), payload.UserID, req.Name, req.AvatarURL)
		if err != nil {
			if errors.Is(err, models.ErrDataNotFound) {
				writeError(w, http.StatusNotFound, "User not found")
				return
			}
			ah.logger.Error("update profile", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		writeJSON(w, http.StatusOK, newProfileResponse(user))
	}
}

// ChangePassword replaces password of current user
// 200 — пароль изменен;
// 400 — неверный формат запроса или текущий пароль;
// 401 — пользователь не авторизован;
// 404 — пользователь не найден;
// 500 — внутренняя ошибка сервера.
func (ah *AccountHandler) ChangePassword() http.HandlerFunc {
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
		if err := validateBody(passwordRequestSchema, body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req passwordRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		err = ah.svc.ChangePassword(r.Context(), payload.UserID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrWrongPassword):
				writeError(w, http.StatusBadRequest, "Current password is incorrect")
			case errors.Is(err, models.ErrDataNotFound):
				writeError(w, http.StatusNotFound, "User not found")
			default:
				ah.logger.Error("change password", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "Internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{Message: "Password changed"})
	}
}
