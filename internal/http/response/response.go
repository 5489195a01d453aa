// Package response writes JSON envelopes for handlers that sit outside the
// huma operation layer: router fallbacks and middleware rejections.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"strconv"

	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
)

// Version is the envelope schema version, sent as "v".
const Version = 1

// Envelope wraps success payloads and uncoded errors.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitzero"`
	Error   string `json:"error,omitempty"`
}

// ErrorEnvelope carries a machine-readable code with optional details.
type ErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error writes an uncoded error envelope.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	write(w, status, Envelope{Version: Version, Error: message}, logger)
}

// Coded writes an ErrorEnvelope with code and the status it maps to.
func Coded(w http.ResponseWriter, code domainerrors.Code, message string, logger *slog.Logger) {
	write(w, code.HTTPStatus(), ErrorEnvelope{Version: Version, Code: string(code), Message: message}, logger)
}

// NotFound writes a 404 NOT_FOUND envelope.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Coded(w, domainerrors.CodeNotFound, message, logger)
}

// MethodNotAllowed writes a 405. There is no domain code for it.
func MethodNotAllowed(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusMethodNotAllowed, message, logger)
}

// TooManyRequests writes a 429 RATE_LIMITED envelope with a one second
// Retry-After hint.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	w.Header().Set("Retry-After", strconv.Itoa(1))
	Coded(w, domainerrors.CodeRateLimited, message, logger)
}

func write(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, body); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}
