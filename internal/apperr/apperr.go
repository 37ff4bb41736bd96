// Package apperr defines the error taxonomy shared by services and handlers.
//
// Every error carries a Kind that decides the HTTP status and a Message that is
// safe to show to clients. The wrapped cause is only ever logged.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status maps a Kind to its HTTP status. Conflicts are reported as 400.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

const internalMessage = "Internal server error"

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string) error { return New(KindValidation, msg) }

func Validationf(format string, args ...any) error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func Auth(msg string) error { return New(KindAuth, msg) }

func Forbidden(msg string) error { return New(KindForbidden, msg) }

func NotFound(msg string) error { return New(KindNotFound, msg) }

func Conflict(msg string) error { return New(KindConflict, msg) }

// Wrap records err as an internal failure. msg is kept for logs only.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the Kind of err. Untyped errors are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		return ae.Message
	}
	return internalMessage
}
