package domain

import (
	"errors"
)

// Error kinds. Every error that should reach a client with a specific status
// wraps one of these.
var (
	ErrValidation            = errors.New("validation failed")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrNoData                = errors.New("no data")
	ErrUpstream              = errors.New("upstream request failed")
	ErrUpstreamNotConfigured = errors.New("upstream not configured")
)

// Error carries a message that is safe to show to clients next to its kind
// and an optional internal cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewValidationError(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

func NewUnauthorizedError(msg string) error {
	return &Error{Kind: ErrUnauthorized, Msg: msg}
}

func NewForbiddenError(msg string) error {
	return &Error{Kind: ErrForbidden, Msg: msg}
}

func NewNotFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Msg: msg}
}

func NewNoDataError(msg string) error {
	return &Error{Kind: ErrNoData, Msg: msg}
}

func NewUpstreamError(msg string, cause error) error {
	return &Error{Kind: ErrUpstream, Msg: msg, Err: cause}
}

func NewNotConfiguredError(msg string) error {
	return &Error{Kind: ErrUpstreamNotConfigured, Msg: msg}
}

// PublicMessage returns the client-safe message of err, or fallback when err
// carries none.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return fallback
}
