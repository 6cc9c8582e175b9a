// Package apperr defines the error taxonomy shared by services and handlers.
//
// Every operation returns (value, error). A non-nil error is either an *Error
// carrying a Kind, or an unclassified error which callers treat as upstream.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// KindValidation means the caller sent missing, malformed or out-of-range input.
	KindValidation Kind = "validation"

	// KindNotFound means a referenced lead, user or record does not exist.
	KindNotFound Kind = "not_found"

	// KindUnauthorized means the credential is missing, invalid or wrong.
	KindUnauthorized Kind = "unauthorized"

	// KindUpstream means the data store (or another dependency) failed.
	KindUpstream Kind = "upstream"
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a validation error with a caller-facing message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error with a caller-facing message.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized returns an unauthorized error with a caller-facing message.
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a dependency failure. The message describes the operation;
// the wrapped error stays internal.
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// KindOf reports the kind of err. Unclassified errors are upstream.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
