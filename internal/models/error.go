package models

import "errors"

var (
	ErrConflictData       = errors.New("data conflicts with existing data")
	ErrDataNotFound       = errors.New("data not found")
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrInvalidSignature   = errors.New("invalid event signature")
	ErrMalformedEvent     = errors.New("malformed event payload")
	ErrProductNotFound    = errors.New("some products not found")
	ErrEmptyCheckout      = errors.New("checkout has no items")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrStatusTransition   = errors.New("order status transition not allowed")
	ErrUserExists         = errors.New("user already exists")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidQuantity    = errors.New("invalid item quantity")
	ErrEmptyCart          = errors.New("cart has no items")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNoRecipient        = errors.New("no recipient address")
)
