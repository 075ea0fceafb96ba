package api

import (
	"errors"
	"net/http"

	"github.com/crowdlab/crowdlab/internal/authz"
	"github.com/crowdlab/crowdlab/internal/store"
)

// Error is an API failure carrying the HTTP status and the exception
// class reported in the failure envelope. The class names mirror the
// wire format consumed by existing clients (NotFound, Forbidden,
// AttributeError, ...), so they are part of the API contract.
type Error struct {
	Status int
	Class  string
	Msg    string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Msg }

// Error constructors, one per envelope exception class.

func errBadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Class: "BadRequest", Msg: msg}
}

func errUnauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Class: "Unauthorized", Msg: msg}
}

func errForbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Class: "Forbidden", Msg: msg}
}

func errNotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Class: "NotFound", Msg: msg}
}

func errMethodNotAllowed(msg string) *Error {
	return &Error{Status: http.StatusMethodNotAllowed, Class: "MethodNotAllowed", Msg: msg}
}

// The 415 family covers malformed input: unknown attributes, type
// mismatches and undecodable bodies.

func errAttributeError(msg string) *Error {
	return &Error{Status: http.StatusUnsupportedMediaType, Class: "AttributeError", Msg: msg}
}

func errTypeError(msg string) *Error {
	return &Error{Status: http.StatusUnsupportedMediaType, Class: "TypeError", Msg: msg}
}

func errValueError(msg string) *Error {
	return &Error{Status: http.StatusUnsupportedMediaType, Class: "ValueError", Msg: msg}
}

func errIntegrity(msg string) *Error {
	return &Error{Status: http.StatusUnsupportedMediaType, Class: "DBIntegrityError", Msg: msg}
}

func errTooManyRequests(msg string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Class: "TooManyRequests", Msg: msg}
}

// ErrRateLimited is returned when a client exhausts its request window.
var ErrRateLimited = &Error{
	Status: http.StatusTooManyRequests,
	Class:  "TooManyRequests",
	Msg:    "429 Too Many Requests",
}

// translate maps any error onto an *Error for envelope rendering.
// Authorization and store sentinels are recognized; everything else
// becomes a 500.
func translate(err error) *Error {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, authz.ErrUnauthorized):
		return errUnauthorized(err.Error())
	case errors.Is(err, authz.ErrForbidden):
		return errForbidden(err.Error())
	case errors.Is(err, store.ErrNotFound):
		return errNotFound(err.Error())
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrInvalidEntity):
		return errIntegrity(err.Error())
	case errors.Is(err, store.ErrNotSupported):
		return errMethodNotAllowed(err.Error())
	default:
		return &Error{
			Status: http.StatusInternalServerError,
			Class:  "InternalServerError",
			Msg:    err.Error(),
		}
	}
}
