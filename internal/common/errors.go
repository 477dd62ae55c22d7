// Package common defines shared constants and sentinel errors used across
// the portal server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors.
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")

	ErrorTooManyRequests = errors.New("too many requests")
)

// Error pairs one of the sentinel kinds above with a message that is safe to
// show to API clients. errors.Is(err, kind) holds for every *Error.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError returns an *Error of the given kind.
func NewError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// NewValidationError returns an ErrorValidation-kind error.
func NewValidationError(message string) error {
	return &Error{Kind: ErrorValidation, Message: message}
}

// MessageOf returns the client-facing message carried by err, if any.
func MessageOf(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Message, true
	}
	return "", false
}
