// Package apperr classifies failures so the HTTP layer, the API client and
// callers agree on how an error should be reported.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	Conflict
	NotFound
	Request
	Auth
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case Request:
		return "request"
	case Auth:
		return "auth"
	default:
		return "internal"
	}
}

// Error carries a stable machine code next to a user-facing message.
// Two errors are considered the same by errors.Is when their codes match.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy of e that carries cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, Internal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// MessageOf returns the user-facing message, falling back to err.Error().
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

var (
	ErrMissingField  = New(Validation, "missing_field", "required field is missing")
	ErrInvalidValue  = New(Validation, "invalid_value", "invalid value")
	ErrUnauthorized  = New(Auth, "unauthorized", "authentication required")
	ErrRequestFailed = New(Request, "request_failed", "request failed")
)

func MissingField(name string) *Error {
	return ErrMissingField.WithMessage("%s is required", name)
}

func InvalidValue(name string, value any) *Error {
	return ErrInvalidValue.WithMessage("invalid %s: %v", name, value)
}
