package handler

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/rookgm/storefront/internal/models"
	"github.com/rookgm/storefront/internal/service"
	"go.uber.org/zap"
	"io"
	"net/http"
	"time"
)

//go:generate mockgen -source=user.go -destination=mocks/user.go -package=mocks

const (
	authCookieName = "auth_token"
	authCookieTTL  = 24 * time.Hour
)

// UserService is interface for user registration
type UserService interface {
	Register(ctx context.Context, user *models.User, password string) (*models.User, error)
}

// AuthService is interface for user authentication
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// UserHandler represents HTTP handler for user registration
type UserHandler struct {
	svc    UserService
	token  service.TokenService
	logger *zap.Logger
}

// NewUserHandler creates new UserHandler instance
func NewUserHandler(svc UserService, token service.TokenService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		token:  token,
		logger: logger,
	}
}

// AuthHandler represents HTTP handler for user login
type AuthHandler struct {
	svc    AuthService
	logger *zap.Logger
}

// NewAuthHandler creates new AuthHandler instance
func NewAuthHandler(svc AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(authCookieTTL),
	})
}

// RegisterUser registers new user and authenticates it
// 200 — пользователь успешно зарегистрирован и аутентифицирован;
// 400 — неверный формат запроса;
// 409 — e-mail уже занят;
// 500 — внутренняя ошибка сервера.
func (uh *UserHandler) RegisterUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		if err != nil || len(body) == 0 {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if err := validateBody(registerRequestSchema, body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req registerRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		user, err := uh.svc.Register(r.Context(), &models.User{Email: req.Email, Name: req.Name}, req.Password)
		if err != nil {
			if errors.Is(err, models.ErrUserExists) {
				writeError(w, http.StatusConflict, "User already exists")
				return
			}
			uh.logger.Error("register user", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		token, err := uh.token.CreateToken(user)
		if err != nil {
			uh.logger.Error("create token", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		setAuthCookie(w, token)
		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}

// LoginUser authenticates user
// 200 — пользователь успешно аутентифицирован;
// 400 — неверный формат запроса;
// 401 — неверная пара e-mail/пароль;
// 500 — внутренняя ошибка сервера.
func (ah *AuthHandler) LoginUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
		if err != nil || len(body) == 0 {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if err := validateBody(loginRequestSchema, body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req loginRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		token, err := ah.svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, models.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "Invalid email or password")
				return
			}
			ah.logger.Error("login user", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}

		setAuthCookie(w, token)
		writeJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}
