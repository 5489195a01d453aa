package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/store"
)

// APIError is the huma.StatusError every handler failure is rendered as.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

func (e *APIError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int { return e.status }

// ContentType implements huma.ContentTypeFilter.
func (e *APIError) ContentType(_ string) string { return "application/json" }

// RegisterErrorHandler replaces huma.NewError so that coded errors keep their
// code and status. It must run before routes are registered.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var details []*huma.ErrorDetail
		for _, err := range errs {
			if apiErr := fromError(err); apiErr != nil {
				return apiErr
			}
			var detailer huma.ErrorDetailer
			if errors.As(err, &detailer) {
				details = append(details, detailer.ErrorDetail())
			}
		}

		apiErr := &APIError{status: status, Code: statusToCode(status), Message: message}
		if len(details) > 0 {
			apiErr.Details = details
		}
		return apiErr
	}
}

// fromError maps the error kinds services let through. It returns nil for
// anything else so huma's own status and message apply.
func fromError(err error) *APIError {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return &APIError{
			status:  domainErr.HTTPStatus(),
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		}
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return &APIError{status: storeErr.HTTPCode(), Code: statusToCode(storeErr.HTTPCode()), Message: storeErr.Message}
	}

	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return &APIError{status: http.StatusNotFound, Code: string(domainerrors.CodeNotFound), Message: err.Error()}
	case errors.Is(err, metadata.ErrInvalidID), errors.Is(err, metadata.ErrBadRequest):
		return &APIError{status: http.StatusBadRequest, Code: string(domainerrors.CodeValidation), Message: err.Error()}
	// Upstream throttling and timeouts are not the caller's fault.
	case errors.Is(err, metadata.ErrRateLimited), errors.Is(err, context.DeadlineExceeded):
		return &APIError{status: http.StatusServiceUnavailable, Code: string(domainerrors.CodeUnavailable), Message: "upstream provider unavailable"}
	}
	return nil
}

func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeUnavailable)
	default:
		return string(domainerrors.CodeInternal)
	}
}
