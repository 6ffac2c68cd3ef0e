package service

import (
	"github.com/eventstream/pulse/internal/utils"
)

// TokenValidator checks the shared read API token.
type TokenValidator struct {
	expected string
}

// NewTokenValidator creates a validator for the configured API token.
func NewTokenValidator(expected string) *TokenValidator {
	return &TokenValidator{expected: expected}
}

// Validate returns utils.ErrUnauthorized unless token matches exactly.
func (v *TokenValidator) Validate(token string) error {
	if token == "" || v.expected == "" {
		return utils.ErrUnauthorized
	}
	if !utils.ConstantTimeEqual(token, v.expected) {
		return utils.ErrUnauthorized
	}
	return nil
}
