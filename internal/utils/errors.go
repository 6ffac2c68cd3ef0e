package utils

import "errors"

// Common application errors used across services. Handlers map them to HTTP
// status codes with errors.Is, so services wrap rather than replace them.
var (
	ErrInvalidArgument = errors.New("INVALID_ARGUMENT")
	ErrUnauthorized    = errors.New("UNAUTHORIZED")
	ErrNotFound        = errors.New("NOT_FOUND")
	ErrGone            = errors.New("GONE")
	ErrConflict        = errors.New("CONFLICT")
	ErrInternal        = errors.New("INTERNAL_ERROR")
)
