package response

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
)

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	MethodNotAllowed(w, "boom", logger)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var got Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, Version, got.Version)
	assert.False(t, got.Success)
	assert.Nil(t, got.Data)
	assert.Equal(t, "boom", got.Error)
}

func TestCoded(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		code   domainerrors.Code
	}{
		{"not found", func(w http.ResponseWriter) { NotFound(w, "boom", nil) }, http.StatusNotFound, domainerrors.CodeNotFound},
		{"too many requests", func(w http.ResponseWriter) { TooManyRequests(w, "boom", nil) }, http.StatusTooManyRequests, domainerrors.CodeRateLimited},
		{"explicit", func(w http.ResponseWriter) { Coded(w, domainerrors.CodeUnavailable, "boom", nil) }, http.StatusServiceUnavailable, domainerrors.CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			var got ErrorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, Version, got.Version)
			assert.False(t, got.Success)
			assert.Equal(t, string(tt.code), got.Code)
			assert.Equal(t, "boom", got.Message)
		})
	}
}

func TestTooManyRequests_RetryAfter(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequests(w, "slow down", nil)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}
