package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-metadata/internal/http/response"
)

// EnvelopeVersion is sent as "v" on every response body.
const EnvelopeVersion = response.Version

// APIEnvelope wraps success payloads and simple errors.
type APIEnvelope = response.Envelope //nolint:revive // API prefix is intentional for clarity

// APIErrorEnvelope carries a coded error with optional details.
type APIErrorEnvelope = response.ErrorEnvelope //nolint:revive // API prefix is intentional for clarity

// EnvelopeTransformer wraps every response body in the versioned envelope.
// Errors with a code become APIErrorEnvelope; everything else is APIEnvelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch val := v.(type) {
	case APIEnvelope, APIErrorEnvelope:
		return v, nil
	case *APIError:
		if val.Code == "" {
			return APIEnvelope{Version: EnvelopeVersion, Error: val.Message}, nil
		}
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Code:    val.Code,
			Message: val.Message,
			Details: val.Details,
		}, nil
	case error:
		return APIEnvelope{Version: EnvelopeVersion, Error: val.Error()}, nil
	}
	return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
}
