package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/importer"
	"github.com/listenupapp/listenup-metadata/internal/service"
)

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "importList",
		Method:      http.MethodPost,
		Path:        "/api/v1/lists/import",
		Summary:     "Import a Goodreads list",
		Description: "Scrapes a public Goodreads list or shelf, resolves every entry to a book and stores the list. Blocks until the import finishes.",
		Tags:        []string{"Lists"},
	}, s.handleImportList)

	huma.Register(s.api, huma.Operation{
		OperationID:   "importListAsync",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists/import/async",
		Summary:       "Queue a Goodreads list import",
		Description:   "Accepts the import and runs it in the background. The outcome is recorded in the activity log.",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleImportListAsync)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createList",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists",
		Summary:       "Create custom list",
		Description:   "Creates a list from provider ids. Ids that cannot be resolved stay on the list and are counted apart.",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLists",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists",
		Summary:     "List lists",
		Tags:        []string{"Lists"},
	}, s.handleListLists)

	huma.Register(s.api, huma.Operation{
		OperationID: "getList",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{id}",
		Summary:     "Get list",
		Tags:        []string{"Lists"},
	}, s.handleGetList)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteList",
		Method:        http.MethodDelete,
		Path:          "/api/v1/lists/{id}",
		Summary:       "Delete list",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteList)
}

// ImportListInput contains the list URL to import.
type ImportListInput struct {
	Body service.ImportRequest
}

// ImportListOutput contains the import summary.
type ImportListOutput struct {
	Body *importer.ImportResult
}

func (s *Server) handleImportList(ctx context.Context, input *ImportListInput) (*ImportListOutput, error) {
	result, err := s.services.Import.ImportList(ctx, input.Body.URL, s.caller(ctx))
	if err != nil {
		return nil, err
	}
	return &ImportListOutput{Body: result}, nil
}

// ImportTicketOutput acknowledges a queued import.
type ImportTicketOutput struct {
	Body importer.Ticket
}

func (s *Server) handleImportListAsync(ctx context.Context, input *ImportListInput) (*ImportTicketOutput, error) {
	ticket, err := s.services.Import.ImportListAsync(input.Body.URL, s.caller(ctx))
	if err != nil {
		return nil, err
	}
	return &ImportTicketOutput{Body: ticket}, nil
}

// CreateListInput contains a custom list definition.
type CreateListInput struct {
	Body service.CreateListRequest
}

// CreateListOutput contains the creation summary.
type CreateListOutput struct {
	Body *importer.CustomListResult
}

func (s *Server) handleCreateList(ctx context.Context, input *CreateListInput) (*CreateListOutput, error) {
	result, err := s.services.Lists.CreateCustomList(ctx, &input.Body, s.caller(ctx))
	if err != nil {
		return nil, err
	}
	return &CreateListOutput{Body: result}, nil
}

// ListListsResponse contains list summaries.
type ListListsResponse struct {
	Lists []domain.ListSummary `json:"lists" doc:"Lists, newest first"`
}

// ListListsOutput wraps the list summaries for Huma.
type ListListsOutput struct {
	Body ListListsResponse
}

func (s *Server) handleListLists(ctx context.Context, _ *struct{}) (*ListListsOutput, error) {
	lists, err := s.services.Lists.ListLists(ctx)
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []domain.ListSummary{}
	}
	return &ListListsOutput{Body: ListListsResponse{Lists: lists}}, nil
}

// ListIDInput identifies a list.
type ListIDInput struct {
	ID string `path:"id" maxLength:"64" doc:"List id"`
}

// ListOutput contains a list with its items.
type ListOutput struct {
	Body *domain.List
}

func (s *Server) handleGetList(ctx context.Context, input *ListIDInput) (*ListOutput, error) {
	list, err := s.services.Lists.GetList(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: list}, nil
}

func (s *Server) handleDeleteList(ctx context.Context, input *ListIDInput) (*struct{}, error) {
	if err := s.services.Lists.DeleteList(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
