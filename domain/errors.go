package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeState        ErrorCode = "STATE"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
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

// NewValidationError builds an INVALID error from a format string.
func NewValidationError(format string, args ...interface{}) *Error {
	return &Error{Code: ErrCodeInvalid, Message: fmt.Sprintf(format, args...)}
}

// NewTransitionError names the disallowed transition so callers can report it verbatim.
func NewTransitionError(entity string, from, to string) *Error {
	return &Error{
		Code:    ErrCodeState,
		Message: fmt.Sprintf("%s transition %s -> %s is not allowed", entity, from, to),
	}
}

// Common domain errors.
var (
	ErrWorkItemNotFound = NewError(ErrCodeNotFound, "work item not found")
	ErrReminderNotFound = NewError(ErrCodeNotFound, "reminder not found")
	ErrVersionConflict  = NewError(ErrCodeConflict, "entity version conflict")
	ErrWorkItemArchived = NewError(ErrCodeState, "work item is archived and cannot be modified")
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
