package models

import "time"

// Role is user role
type Role string

// user roles
const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is user entity
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	AvatarURL    string
	CreatedAt    time.Time
}

// TokenPayload is authorization token payload
type TokenPayload struct {
	UserID string
	Email  string
	Role   Role
}
