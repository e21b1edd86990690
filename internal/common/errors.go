// Package common defines shared constants and sentinel errors used across
// server, admin and client layers of SheetKeeper. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors: a required field is missing or empty.
	ErrValidation = errors.New("validation error")

	// ErrUnprocessable is the parent of content errors: the request is well
	// formed but the payload cannot be stored.
	ErrUnprocessable = errors.New("unprocessable content")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError carries a client-facing message and matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid returns a *ValidationError with the given message.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}
