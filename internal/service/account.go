package service

import (
	"context"
	"fmt"
	"github.com/rookgm/storefront/internal/models"
	"golang.org/x/crypto/bcrypt"
	"strings"
)

// AccountRepository is interface for user profile data
type AccountRepository interface {
	// GetUserByID returns user by id
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// UpdateProfile sets user name and avatar
	UpdateProfile(ctx context.Context, id, name, avatarURL string) (*models.User, error)
	// UpdatePasswordHash replaces user password hash
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// AccountService implements profile management of signed-in users
type AccountService struct {
	repo AccountRepository
}

// NewAccountService creates new AccountService instance
func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

// GetProfile returns user profile
func (as *AccountService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return as.repo.GetUserByID(ctx, userID)
}

// UpdateProfile changes user name and avatar URL, empty URL clears the avatar
func (as *AccountService) UpdateProfile(ctx context.Context, userID, name, avatarURL string) (*models.User, error) {
	return as.repo.UpdateProfile(ctx, userID, strings.TrimSpace(name), strings.TrimSpace(avatarURL))
}

// ChangePassword replaces user password if current one matches
func (as *AccountService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := as.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return models.ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return as.repo.UpdatePasswordHash(ctx, userID, string(hash))
}
