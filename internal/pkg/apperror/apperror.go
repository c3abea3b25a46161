// internal/pkg/apperror/apperror.go
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an application error for transport mapping
type Kind string

const (
	KindValidation        Kind = "validation_error"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindConflict          Kind = "conflict"
	KindInsufficientStock Kind = "insufficient_stock"
	KindUpstreamFailure   Kind = "upstream_failure"
	KindInternal          Kind = "internal_error"
)

// Error is the application error type carried from services to handlers
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Fields carries structured detail, e.g. current/requested status
	// for invalid transitions
	Fields map[string]string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

// WithField attaches a structured detail field
func (e *Error) WithField(key, value string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[key] = value
	return e
}

// New creates an error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps a cause with an application error
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation creates a validation error
func Validation(format string, args ...interface{}) *Error {
	return Newf(KindValidation, format, args...)
}

// NotFound creates a not-found error
func NotFound(format string, args ...interface{}) *Error {
	return Newf(KindNotFound, format, args...)
}

// InvalidTransition creates an invalid order-status transition error
// carrying the current and requested states
func InvalidTransition(current, requested string) *Error {
	return Newf(KindInvalidTransition, "status transition from %s to %s is not allowed", current, requested).
		WithField("current_status", current).
		WithField("requested_status", requested)
}

// Conflict creates a conflict error (unique-constraint races and
// optimistic-concurrency failures)
func Conflict(format string, args ...interface{}) *Error {
	return Newf(KindConflict, format, args...)
}

// InsufficientStock creates a stock shortage error
func InsufficientStock(sku string, available, requested int) *Error {
	return Newf(KindInsufficientStock, "insufficient stock for %s: available %d, requested %d", sku, available, requested).
		WithField("sku", sku)
}

// Upstream creates an upstream collaborator failure
func Upstream(message string, err error) *Error {
	return Wrap(KindUpstreamFailure, message, err)
}

// Internal wraps an unexpected failure
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf returns the kind of err, or KindInternal for plain errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// AsError extracts the *Error from err when present
func AsError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
