package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-metadata/internal/domain"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "Browse library",
		Description: "Returns a page of stored library entries, most recently accessed first",
		Tags:        []string{"Library"},
	}, s.handleListLibrary)
}

// LibraryInput contains filters for browsing the library.
type LibraryInput struct {
	MinRating float64 `query:"min_rating" minimum:"0" maximum:"5" doc:"Minimum rating"`
	Provider  string  `query:"provider" doc:"Provider name"`
	Language  string  `query:"language" doc:"ISO 639-1 language code"`
	Year      string  `query:"year" doc:"Four-digit publication year"`
	Offset    int     `query:"offset" minimum:"0" doc:"Entries to skip"`
	Limit     int     `query:"limit" minimum:"0" maximum:"200" doc:"Page size (0 uses the default)"`
}

// LibraryOutput contains a page of library entries.
type LibraryOutput struct {
	Body *domain.LibraryPage
}

func (s *Server) handleListLibrary(ctx context.Context, input *LibraryInput) (*LibraryOutput, error) {
	page, err := s.services.Library.LibraryPage(ctx, domain.LibraryFilter{
		MinRating: input.MinRating,
		Provider:  input.Provider,
		Language:  input.Language,
		Year:      input.Year,
		Offset:    input.Offset,
		Limit:     input.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &LibraryOutput{Body: page}, nil
}
