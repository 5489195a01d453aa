package store

import (
	"fmt"
	"net/http"
)

// Error is a storage failure carrying the HTTP status the API reports for it.
// Both tiers return these, so callers test with errors.Is against the
// sentinels below.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same status and message, so a sentinel
// still matches after WithCause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status && t.Message == e.Message
}

// HTTPCode returns the status the API layer maps this error to.
func (e *Error) HTTPCode() int { return e.Status }

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Status: e.Status, Message: e.Message, Err: err}
}

var (
	ErrNotFound      = &Error{Status: http.StatusNotFound, Message: "not found"}
	ErrAlreadyExists = &Error{Status: http.StatusConflict, Message: "already exists"}
	// ErrClosed is returned once the backing database has been closed.
	ErrClosed = &Error{Status: http.StatusServiceUnavailable, Message: "storage closed"}
	// ErrCorrupt marks a cache value that no longer decodes.
	ErrCorrupt = &Error{Status: http.StatusInternalServerError, Message: "corrupt cache value"}
)
