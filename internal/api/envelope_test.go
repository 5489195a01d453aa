package api

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/store"
)

func TestEnvelopeTransformer_AlwaysIncludesVersion(t *testing.T) {
	tests := []struct {
		name   string
		status string
		input  any
	}{
		{"search results", "200", []map[string]string{{"title": "Dune"}}},
		{"created list", "201", map[string]string{"list_id": "custom-1"}},
		{"accepted import", "202", map[string]string{"status": "accepted"}},
		{"no content", "204", nil},
		{"plain error", "500", errors.New("internal error")},
		{"coded error", "404", &APIError{Code: "NOT_FOUND", Message: "book B1 not found"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EnvelopeTransformer(nil, tt.status, tt.input)
			require.NoError(t, err)

			jsonBytes, err := json.Marshal(result)
			require.NoError(t, err)

			var envelope map[string]any
			require.NoError(t, json.Unmarshal(jsonBytes, &envelope))

			require.Contains(t, envelope, "v", "Envelope must contain version field 'v'")
			assert.Equal(t, float64(EnvelopeVersion), envelope["v"])
		})
	}
}

func TestEnvelopeTransformer_SuccessResponse(t *testing.T) {
	data := map[string]string{"title": "Dune"}

	result, err := EnvelopeTransformer(nil, "200", data)
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.Equal(t, data, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_EmptyListKeepsData(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "200", []string{})
	require.NoError(t, err)

	out, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"success":true,"data":[]}`, string(out))
}

func TestEnvelopeTransformer_ErrorResponse(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "400", errors.New("validation failed"))
	require.NoError(t, err)

	envelope, ok := result.(APIEnvelope)
	require.True(t, ok, "Expected APIEnvelope type")

	assert.False(t, envelope.Success)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, "validation failed", envelope.Error)
}

func TestEnvelopeTransformer_ErrorWithDetails(t *testing.T) {
	apiErr := &APIError{
		Code:    "VALIDATION",
		Message: "unknown provider",
		Details: []string{"openlibrary"},
	}

	result, err := EnvelopeTransformer(nil, "400", apiErr)
	require.NoError(t, err)

	envelope, ok := result.(APIErrorEnvelope)
	require.True(t, ok, "Expected APIErrorEnvelope type")

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.False(t, envelope.Success)
	assert.Equal(t, "VALIDATION", envelope.Code)
	assert.Equal(t, "unknown provider", envelope.Message)
	assert.Equal(t, []string{"openlibrary"}, envelope.Details)
}

func TestRegisterErrorHandler_MapsErrors(t *testing.T) {
	RegisterErrorHandler()

	tests := []struct {
		name   string
		err    error
		status int
		code   domainerrors.Code
	}{
		{"domain validation", domainerrors.Validation("must provide q, author, or isbn"), 400, domainerrors.CodeValidation},
		{"domain not found", domainerrors.NotFoundf("book %s not found", "B1"), 404, domainerrors.CodeNotFound},
		{"wrapped domain", errors.Join(errors.New("ctx"), domainerrors.Unavailable("provider down")), 503, domainerrors.CodeUnavailable},
		{"store not found", fmt.Errorf("get: %w", store.ErrNotFound), 404, domainerrors.CodeNotFound},
		{"provider not found", fmt.Errorf("audible: %w", metadata.ErrNotFound), 404, domainerrors.CodeNotFound},
		{"provider throttled", fmt.Errorf("itunes: %w", metadata.ErrRateLimited), 503, domainerrors.CodeUnavailable},
		{"upstream timeout", fmt.Errorf("fetch: %w", context.DeadlineExceeded), 503, domainerrors.CodeUnavailable},
		{"plain", errors.New("boom"), 500, domainerrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := huma.NewError(500, "unexpected error occurred", tt.err)
			assert.Equal(t, tt.status, se.GetStatus())

			apiErr, ok := se.(*APIError)
			require.True(t, ok)
			assert.Equal(t, string(tt.code), apiErr.Code)
		})
	}
}
