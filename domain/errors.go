package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across adapters.
type ErrorCode string

const (
	// ErrCodeValidation marks input rejected before any network call.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeForbidden marks an authorization failure: a non-owner touching
	// a record, or an anonymous caller attempting an identity-gated action.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	ErrCodeNotFound  ErrorCode = "NOT_FOUND"
	ErrCodeConflict  ErrorCode = "CONFLICT"
	// ErrCodeTransport marks the persistence service unreachable or failing
	// in an unexpected way.
	ErrCodeTransport ErrorCode = "TRANSPORT"
	// ErrCodeStorage marks a local durable-store read/write failure.
	ErrCodeStorage ErrorCode = "STORAGE"
)

// Error represents a classified domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrArtworkNotFound    = NewError(ErrCodeNotFound, "artwork not found")
	ErrAccountNotFound    = NewError(ErrCodeNotFound, "account not found")
	ErrKeyNotFound        = NewError(ErrCodeNotFound, "key not found")
	ErrEmailTaken         = NewError(ErrCodeConflict, "email already registered")
	ErrInvalidCredentials = NewError(ErrCodeForbidden, "invalid email or password")
	ErrNotOwner           = NewError(ErrCodeForbidden, "caller does not own this artwork")
	ErrSignInRequired     = NewError(ErrCodeForbidden, "sign in required")
	ErrInvalidPayload     = NewError(ErrCodeValidation, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
