// Package apperr defines the error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindRateLookup
)

// Error carries a Kind, a client-facing message and an optional cause that is
// only ever logged.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports bad or missing input.
func Validation(field, format string, args ...any) error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown id or an unmatched rate key.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a write that collides with existing state.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// RateLookupFailure reports that a rate could not be read or parsed. The
// calculation must stop rather than continue with a zero rate.
func RateLookupFailure(key string, err error) error {
	return &Error{Kind: KindRateLookup, Field: key, Message: "rate lookup failed", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to its response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to clients. Internal and
// rate lookup failures never expose their cause.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "an internal error occurred"
	}
	switch e.Kind {
	case KindRateLookup:
		return "pricing rates are unavailable; no total was calculated"
	case KindInternal:
		return "an internal error occurred"
	}
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Code is the short machine-readable error code used in JSON bodies.
func Code(err error) string {
	switch KindOf(err) {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLookup:
		return "rate_lookup_failure"
	default:
		return "internal_error"
	}
}
