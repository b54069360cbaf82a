// Package apperror defines the domain errors shared by every layer.
//
// Lower layers return these (usually wrapped with fmt.Errorf("...: %w", err))
// and the outer surfaces (HTTP handlers, CLI) translate them into status codes
// or messages. Use errors.Is against the sentinels to branch on the kind.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("Validation Error")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrCorrupt       = errors.New("corrupt stored data")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when a profile PIN or session token does not check out.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Corrupt reports a stored value under key that could not be decoded.
// The decode error text is kept in the message so operators can see what broke;
// callers branch on ErrCorrupt.
func Corrupt(key string, cause error) *AppError {
	return &AppError{
		Err:     ErrCorrupt,
		Message: fmt.Sprintf("stored value under %s is malformed: %v", key, cause),
		Field:   key,
	}
}

// QuotaExceeded reports that the backing store refused a write for lack of space.
// It is never retried.
func QuotaExceeded(key string) *AppError {
	return &AppError{
		Err:     ErrQuotaExceeded,
		Message: fmt.Sprintf("storage quota exceeded while writing %s", key),
		Field:   key,
	}
}
