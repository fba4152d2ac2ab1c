// Package apperr defines the error taxonomy shared by services and the
// HTTP layer. Every caller-facing failure carries one of five kinds so the
// caller can decide whether retrying makes sense.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindNotFound means a referenced entity does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindForbidden means the actor is authenticated but not entitled.
	KindForbidden Kind = "FORBIDDEN"
	// KindInvalidArgument means the request is malformed or self-referential.
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	// KindInvalidState means the entity does not permit the transition.
	KindInvalidState Kind = "INVALID_STATE"
	// KindUnavailable means the underlying store could not commit. Retryable.
	KindUnavailable Kind = "UNAVAILABLE"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return New(KindInvalidState, format, args...)
}

func Unavailable(err error, format string, args ...any) *Error {
	return Wrap(KindUnavailable, err, format, args...)
}

// KindOf extracts the kind from anywhere in err's chain. Errors outside the
// taxonomy report KindUnavailable so callers treat them as infrastructure
// failures rather than input problems.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
