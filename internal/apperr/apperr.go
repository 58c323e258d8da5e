// Package apperr defines the error taxonomy shared by the service packages and
// the HTTP layer. Errors are plain values; wrap them with fmt.Errorf("...: %w")
// and inspect them with errors.Is / errors.As.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthenticated
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error carries a kind, a stable machine code and a message safe to show to
// API clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Fields holds per-field problems for validation errors.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and code so that a wrapped copy of a sentinel still
// compares equal to it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Wrap returns a copy of e that carries cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Fields: e.Fields, Err: cause}
}

// WithFields returns a copy of e carrying per-field details.
func (e *Error) WithFields(fields map[string]string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Fields: fields, Err: e.Err}
}

// FieldsOf returns the field details of the first *Error in err's chain.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Unauthenticated(code, message string) *Error {
	return &Error{Kind: KindUnauthenticated, Code: code, Message: message}
}

func Forbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message}
}

// Generic sentinels used by the storage layer.
var (
	ErrNotFound  = NotFound("not_found", "resource not found")
	ErrConflict  = Conflict("conflict", "resource already exists")
	ErrForbidden = Forbidden("forbidden", "insufficient permissions")
)

// KindOf reports the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps err to the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the code and message for err that are safe to send to a
// client. Internal errors are reduced to a generic message.
func Public(err error) (code, message string) {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Code, e.Message
	}
	return "internal", "Internal server error"
}
