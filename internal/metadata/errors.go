package metadata

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every adapter. Adapter packages re-export them
// so callers can test with either name.
var (
	ErrNotFound    = errors.New("metadata: not found")
	ErrRateLimited = errors.New("metadata: rate limited by server")
	ErrBadRequest  = errors.New("metadata: bad request")
	ErrServer      = errors.New("metadata: server error")
	ErrMissingKey  = errors.New("metadata: api key not configured")
	ErrInvalidID   = errors.New("metadata: invalid identifier")
	ErrPanic       = errors.New("metadata: adapter panicked")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Provider string
	Op       string // "search", "details", "chapters"
	ID       string // If applicable
	Err      error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s [%s]: %v", e.Provider, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError creates an Error with context.
func WrapError(provider, op, id string, err error) error {
	return &Error{
		Provider: provider,
		Op:       op,
		ID:       id,
		Err:      err,
	}
}
