package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeNotAvailable ErrorCode = "NOT_AVAILABLE"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
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

var (
	// ErrDataNotAvailable is the only negative read outcome: the store has
	// nothing for the request, or could not be reached.
	ErrDataNotAvailable = NewError(ErrCodeNotAvailable, "data not available")
	// ErrTaskNotCached is returned by id-based mutations when the id is not in
	// the repository cache.
	ErrTaskNotCached  = NewError(ErrCodeConflict, "task not cached")
	ErrEmptyTask      = NewError(ErrCodeInvalid, "task must have a title or a description")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")
	ErrUnauthorized   = NewError(ErrCodeUnauthorized, "unauthorized")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsNotAvailable reports whether err is, or wraps, a NOT_AVAILABLE domain error.
func IsNotAvailable(err error) bool {
	return errors.Is(err, ErrDataNotAvailable) || IsDomainError(err, ErrCodeNotAvailable)
}
