// Package errors defines the coded errors services return to the API layer.
//
// Services build them with the constructors below; the API maps Code to an
// HTTP status and envelope code. Callers branch with CodeOf:
//
//	switch errors.CodeOf(err) {
//	case errors.CodeValidation:
//	    // rejected before any provider was contacted
//	case errors.CodeNotFound:
//	    // record a fetch_error activity
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error class.
type Code string

const (
	CodeNotFound    Code = "NOT_FOUND"
	CodeValidation  Code = "VALIDATION"
	CodeConflict    Code = "CONFLICT"
	CodeRateLimited Code = "RATE_LIMITED"
	CodeUnavailable Code = "UNAVAILABLE"
	CodeInternal    Code = "INTERNAL"
)

var statuses = map[Code]int{
	CodeNotFound:    http.StatusNotFound,
	CodeValidation:  http.StatusBadRequest,
	CodeConflict:    http.StatusConflict,
	CodeRateLimited: http.StatusTooManyRequests,
	CodeUnavailable: http.StatusServiceUnavailable,
}

// HTTPStatus maps c to a response status. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if s, ok := statuses[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is a coded error with a client-safe message and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// HTTPStatus returns the status for e's code.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// Sentinels for errors.Is.
var (
	ErrNotFound    = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation  = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrUnavailable = &Error{Code: CodeUnavailable, Message: "service unavailable"}
)

// NotFoundf returns a CodeNotFound error.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation returns a CodeValidation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf returns a CodeValidation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails returns a CodeValidation error carrying per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Unavailable returns a CodeUnavailable error.
func Unavailable(msg string) *Error {
	return &Error{Code: CodeUnavailable, Message: msg}
}

// Wrap attaches code and msg to err. The cause stays reachable through
// errors.Is and errors.As but is never sent to clients.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
