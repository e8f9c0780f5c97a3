package handler

import (
	"errors"
	"fmt"
	"github.com/xeipuuv/gojsonschema"
	"strings"
)

var errInvalidRequest = errors.New("invalid request")

const checkoutSchema = `{
	"type": "object",
	"required": ["items"],
	"properties": {
		"items": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["productId", "quantity"],
				"properties": {
					"productId": {"type": "integer", "minimum": 1},
					"quantity": {"type": "integer", "minimum": 1}
				}
			}
		}
	}
}`

const registerSchema = `{
	"type": "object",
	"required": ["email", "name", "password"],
	"properties": {
		"email": {"type": "string", "format": "email"},
		"name": {"type": "string", "minLength": 1},
		"password": {"type": "string", "minLength": 8}
	}
}`

const loginSchema = `{
	"type": "object",
	"required": ["email", "password"],
	"properties": {
		"email": {"type": "string", "minLength": 1},
		"password": {"type": "string", "minLength": 1}
	}
}`

const orderStatusSchema = `{
	"type": "object",
	"required": ["status"],
	"properties": {
		"status": {"enum": ["PENDING", "PAID", "PROCESSING", "SHIPPED", "DELIVERED", "CANCELLED", "REFUNDED"]}
	}
}`

const cartItemSchema = `{
	"type": "object",
	"required": ["identifier", "quantity"],
	"properties": {
		"identifier": {"type": "string", "minLength": 1},
		"quantity": {"type": "integer", "minimum": 1}
	}
}`

const cartQuantitySchema = `{
	"type": "object",
	"required": ["quantity"],
	"properties": {
		"quantity": {"type": "integer"}
	}
}`

const mergeCartSchema = `{
	"type": "object",
	"required": ["items"],
	"properties": {
		"items": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["identifier", "quantity"],
				"properties": {
					"identifier": {"type": "string", "minLength": 1},
					"quantity": {"type": "integer", "minimum": 1}
				}
			}
		}
	}
}`

const profileSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string", "minLength": 2},
		"avatarUrl": {
			"anyOf": [
				{"type": "string", "format": "uri"},
				{"type": "string", "maxLength": 0}
			]
		}
	}
}`

const passwordSchema = `{
	"type": "object",
	"required": ["currentPassword", "newPassword"],
	"properties": {
		"currentPassword": {"type": "string", "minLength": 1},
		"newPassword": {"type": "string", "minLength": 8}
	}
}`

var (
	cartItemRequestSchema     = mustSchema(cartItemSchema)
	cartQuantityRequestSchema = mustSchema(cartQuantitySchema)
	mergeCartRequestSchema    = mustSchema(mergeCartSchema)
	profileRequestSchema      = mustSchema(profileSchema)
	passwordRequestSchema     = mustSchema(passwordSchema)
)

var (
	checkoutRequestSchema    = mustSchema(checkoutSchema)
	registerRequestSchema    = mustSchema(registerSchema)
	loginRequestSchema       = mustSchema(loginSchema)
	orderStatusRequestSchema = mustSchema(orderStatusSchema)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return schema
}

// validateBody checks request body against schema
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", errInvalidRequest, strings.Join(msgs, "; "))
	}
	return nil
}
