package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
)

// Error is a domain failure tagged with the API it originated from.
type Error struct {
	Kind      error
	API       string
	Message   string
	Timestamp time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.API, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

func (e *Error) Status() int {
	return StatusOf(e.Kind)
}

func New(kind error, api, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{
		Kind:      kind,
		API:       api,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
}

func Validation(api, format string, args ...any) *Error {
	return New(ErrValidation, api, format, args...)
}

func Unauthorized(api, format string, args ...any) *Error {
	return New(ErrUnauthorized, api, format, args...)
}

func Forbidden(api, format string, args ...any) *Error {
	return New(ErrForbidden, api, format, args...)
}

func NotFound(api, format string, args ...any) *Error {
	return New(ErrNotFound, api, format, args...)
}

func Conflict(api, format string, args ...any) *Error {
	return New(ErrConflict, api, format, args...)
}

func StatusOf(kind error) int {
	switch {
	case errors.Is(kind, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
