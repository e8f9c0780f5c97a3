package service

import (
	"context"
	"github.com/rookgm/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"testing"
)

func newAccountEnv(t *testing.T) (*memUsers, *models.User) {
	t.Helper()

	repo := newMemUsers()
	user, err := NewUserService(repo).Register(context.Background(), &models.User{Email: "buyer@example.com", Name: "Buyer"}, "password1")
	require.NoError(t, err)

	return repo, user
}

func TestAccountService_Profile(t *testing.T) {
	repo, user := newAccountEnv(t)
	svc := NewAccountService(repo)
	ctx := context.Background()

	got, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buyer", got.Name)
	assert.Empty(t, got.AvatarURL)

	got, err = svc.UpdateProfile(ctx, user.ID, " New Name ", "https://cdn.example/a.png")
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, "https://cdn.example/a.png", got.AvatarURL)

	got, err = svc.UpdateProfile(ctx, user.ID, "New Name", "")
	require.NoError(t, err)
	assert.Empty(t, got.AvatarURL)

	_, err = svc.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrDataNotFound)
}

func TestAccountService_ChangePassword(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		current string
		wantErr error
	}{
		{name: "valid_current_password", current: "password1"},
		{name: "wrong_current_password", current: "password2", wantErr: models.ErrWrongPassword},
		{name: "unknown_user", userID: "missing", current: "password1", wantErr: models.ErrDataNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, user := newAccountEnv(t)
			svc := NewAccountService(repo)

			userID := user.ID
			if tt.userID != "" {
				userID = tt.userID
			}

			err := svc.ChangePassword(context.Background(), userID, tt.current, "new-password")
			stored, getErr := repo.GetUserByID(context.Background(), user.ID)
			require.NoError(t, getErr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password1")))
				return
			}
			require.NoError(t, err)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-password")))
		})
	}
}
