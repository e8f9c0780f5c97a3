package service

import "github.com/rookgm/storefront/internal/models"

// TokenService is interface for issuing and checking authorization tokens
type TokenService interface {
	CreateToken(user *models.User) (string, error)
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}
