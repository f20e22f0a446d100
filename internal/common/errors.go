// Package common defines shared constants and sentinel errors used across
// client and server layers of postboard. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// ErrorNotAuthorizedOrNotFound is returned when an ownership-qualified
	// mutation matched no rows. Whether the record is missing or owned by
	// someone else is intentionally not distinguished.
	ErrorNotAuthorizedOrNotFound = errors.New("not authorized or not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors (client input, rejected uploads).
	ErrorValidation = errors.New("validation error")

	// Auth errors. Every token verification failure collapses to this value.
	ErrInvalidToken = errors.New("invalid token")
)
