package repository

import (
	"context"
	"errors"
	"github.com/jackc/pgx/v5"
	"github.com/rookgm/storefront/internal/models"
	"github.com/rookgm/storefront/internal/repository/postgres"
)

const (
	insertUserQuery = `
						INSERT INTO users (id, email, name, password_hash, role)
						VALUES ($1, $2, $3, $4, $5)
						RETURNING created_at
`
	selectUserByEmailQuery = `
						SELECT ` + userColumns + ` FROM users
						WHERE email = $1
`
	selectUserByIDQuery = `
						SELECT ` + userColumns + ` FROM users
						WHERE id = $1
`
	updateProfileQuery = `
						UPDATE users SET name = $2, avatar_url = $3
						WHERE id = $1
						RETURNING ` + userColumns + `
`
	updatePasswordHashQuery = `
						UPDATE users SET password_hash = $2
						WHERE id = $1
`
)

const userColumns = `id, email, name, password_hash, role, avatar_url, created_at`

// UserRepository implements UserRepository interface
type UserRepository struct {
	db *postgres.DB
}

// NewUserRepository creates new UserRepository instance
func NewUserRepository(db *postgres.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts new user
func (ur *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := ur.db.QueryRow(ctx, insertUserQuery, user.ID, user.Email, user.Name, user.PasswordHash, string(user.Role)).Scan(&user.CreatedAt)
	if err != nil {
		if errCode := ur.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	return user, nil
}

// GetUserByEmail returns user by email
func (ur *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(ur.db.QueryRow(ctx, selectUserByEmailQuery, email))
}

// GetUserByID returns user by id
func (ur *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(ur.db.QueryRow(ctx, selectUserByIDQuery, id))
}

// UpdateProfile sets user name and avatar, returns updated user
func (ur *UserRepository) UpdateProfile(ctx context.Context, id, name, avatarURL string) (*models.User, error) {
	return scanUser(ur.db.QueryRow(ctx, updateProfileQuery, id, name, avatarURL))
}

// UpdatePasswordHash replaces user password hash
func (ur *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	cmd, err := ur.db.Exec(ctx, updatePasswordHashQuery, id, hash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := models.User{}
	var role string
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role, &user.AvatarURL, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}
	user.Role = models.Role(role)

	return &user, nil
}
