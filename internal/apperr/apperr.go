// Package apperr classifies errors crossing the repository/handler
// boundary so handlers can map them to distinct HTTP responses.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the error category exposed to API callers.
type Kind string

const (
	// KindValidation is a missing or out-of-range input, rejected
	// before any store access.
	KindValidation Kind = "validation_error"

	// KindNotFound is a referenced user/song/album/login that does
	// not exist.
	KindNotFound Kind = "not_found"

	// KindPolicy is an operation disallowed for the entity's role,
	// e.g. requesting an individual report for an Analyst.
	KindPolicy Kind = "policy_error"

	// KindInternal is a store or other internal failure. The message
	// shown to callers is generic; the wrapped cause is only logged.
	KindInternal Kind = "internal_error"
)

// Error carries a kind and a human-readable reason.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Validation returns a validation error with the given reason.
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error with the given reason.
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Policy returns a policy error with the given reason.
func Policy(format string, args ...interface{}) error {
	return &Error{Kind: KindPolicy, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps a store or other internal failure. The wrapped cause
// is preserved for logs; callers see only a generic message.
func Internal(cause error) error {
	return &Error{Kind: KindInternal, Message: "internal error", cause: cause}
}

// KindOf returns the kind of err, or KindInternal for unclassified
// errors (a bare sql or driver error is always internal).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode maps an error kind to its HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return 400
	case KindNotFound:
		return 404
	case KindPolicy:
		return 403
	default:
		return 500
	}
}

// Reason returns the caller-visible message for err. Internal errors
// collapse to a generic message so query text never leaks.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}
