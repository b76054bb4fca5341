// Package errs is the error taxonomy of the HTTP surface. Each Error
// carries the HTTP status it is reported with and a machine readable code.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode qualifies an error beyond its HTTP status.
type ErrorCode string

const (
	CodeNone             ErrorCode = "NONE"
	CodeInvalidProperty  ErrorCode = "INVALID_PROPERTY"
	CodeInvalidEnum      ErrorCode = "INVALID_ENUM"
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	CodeNotFound         ErrorCode = "NOT_FOUND"
)

// Error is an error that maps onto an HTTP response.
type Error struct {
	Status  int       `json:"status"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Params  []string  `json:"params"`
	Cause   error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d %s] %s: %v", e.Status, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d %s] %s", e.Status, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithParams names the parameters the error is about.
func (e *Error) WithParams(params ...string) *Error {
	e.Params = append(e.Params, params...)
	return e
}

func newError(status int, message string, code []ErrorCode) *Error {
	c := CodeNone
	if len(code) > 0 {
		c = code[0]
	}
	return &Error{Status: status, Code: c, Message: message}
}

// Internal is a 500 error. The code defaults to NONE.
func Internal(message string, code ...ErrorCode) *Error {
	return newError(http.StatusInternalServerError, message, code)
}

// BadRequest is a 400 error.
func BadRequest(message string, code ...ErrorCode) *Error {
	return newError(http.StatusBadRequest, message, code)
}

// Unauthorized is a 401 error.
func Unauthorized(message string, code ...ErrorCode) *Error {
	return newError(http.StatusUnauthorized, message, code)
}

// Forbidden is a 403 error.
func Forbidden(message string, code ...ErrorCode) *Error {
	return newError(http.StatusForbidden, message, code)
}

// NotFound is a 404 error.
func NotFound(message string, code ...ErrorCode) *Error {
	return newError(http.StatusNotFound, message, code)
}

// Conflict is a 409 error.
func Conflict(message string, code ...ErrorCode) *Error {
	return newError(http.StatusConflict, message, code)
}

// From returns err as an *Error. Errors outside the taxonomy become
// Internal with code NONE and keep their message.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err.Error()).WithCause(err)
}
