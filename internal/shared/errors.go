package shared

import (
	"errors"
	"fmt"
	"strings"
)

// Roles stored on user records and sessions.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrNotFound indicates an id that does not resolve to a record.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate unique key (username, email,
	// SKU, supplier name).
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates missing or malformed required fields.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure. Deliberately shared
	// between unknown-user and wrong-password to prevent enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when a CSRF token is absent.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// ValidationError carries per-field messages for form re-rendering.
// It unwraps to ErrValidation so callers can classify it with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// userError pairs a classifying sentinel with a message that is safe to
// show to the requester.
type userError struct {
	sentinel error
	message  string
}

func (e *userError) Error() string { return e.message }

func (e *userError) Unwrap() error { return e.sentinel }

// Conflict builds a duplicate-key error with a display message.
func Conflict(message string) error {
	return &userError{sentinel: ErrConflict, message: message}
}

// NotFound builds a missing-record error with a display message.
func NotFound(message string) error {
	return &userError{sentinel: ErrNotFound, message: message}
}

// FieldErrors extracts the field map from a validation error, or a
// single "general" entry for every other error.
func FieldErrors(err error) map[string]string {
	var verr *ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		return verr.Fields
	}
	return map[string]string{"general": UserSafeMessage(err)}
}

// UserSafeMessage returns a message suitable for display. Unclassified
// errors are reduced to a generic message so internals never leak.
func UserSafeMessage(err error) string {
	var uerr *userError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &uerr):
		return uerr.message
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found"
	case errors.Is(err, ErrConflict):
		return "A record with the same unique value already exists"
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	default:
		return "Something went wrong, please try again"
	}
}
