package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book details",
		Description: "Returns the cached or stored entry for a provider id, fetching it live from Audible, iTunes and Penguin Random House in that order on a miss",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}",
		Summary:       "Delete library entry",
		Description:   "Removes a book from the library and evicts its cache entry",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordCustomFields",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/custom-fields",
		Summary:     "Record custom fields",
		Description: "Merges caller-supplied fields into the custom metadata for a book. Existing keys are overwritten.",
		Tags:        []string{"Books"},
	}, s.handleRecordCustomFields)
}

// BookIDInput identifies a book by provider id.
type BookIDInput struct {
	ID string `path:"id" maxLength:"64" doc:"Provider id (ASIN, iTunes id, ISBN or provider-prefixed id)"`
}

// BookOutput contains a library entry.
type BookOutput struct {
	Body *domain.LibraryEntry
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	entry, err := s.services.Details.GetDetails(ctx, input.ID, s.caller(ctx))
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: entry}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	if err := s.services.Library.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

// CustomFieldsInput contains fields to merge for a book.
type CustomFieldsInput struct {
	ID   string `path:"id" maxLength:"64" doc:"Provider id"`
	Body struct {
		Fields map[string]any `json:"fields" doc:"Fields to merge"`
	}
}

// CustomFieldsResponse contains the merged custom fields.
type CustomFieldsResponse struct {
	ID     string         `json:"id" doc:"Provider id"`
	Fields map[string]any `json:"fields" doc:"All custom fields after the merge"`
}

// CustomFieldsOutput wraps the custom fields response for Huma.
type CustomFieldsOutput struct {
	Body CustomFieldsResponse
}

func (s *Server) handleRecordCustomFields(ctx context.Context, input *CustomFieldsInput) (*CustomFieldsOutput, error) {
	merged, err := s.services.Lists.RecordCustomFields(ctx, &service.CustomFieldsRequest{
		ID:     input.ID,
		Fields: input.Body.Fields,
	}, s.caller(ctx))
	if err != nil {
		return nil, err
	}
	return &CustomFieldsOutput{Body: CustomFieldsResponse{ID: input.ID, Fields: merged}}, nil
}
