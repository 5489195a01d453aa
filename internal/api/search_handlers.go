package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-metadata/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search all providers",
		Description: "Fans the query out to every enabled provider, merges and de-duplicates the results, and optionally groups them into unified books. Identical searches are replayed from cache.",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains parameters for a metadata search.
type SearchInput struct {
	Query     string  `query:"q" maxLength:"300" doc:"Free-text query"`
	Author    string  `query:"author" maxLength:"200" doc:"Author name"`
	ISBN      string  `query:"isbn" maxLength:"20" doc:"ISBN-10 or ISBN-13"`
	Providers string  `query:"providers" doc:"Comma-separated provider names, overriding the enabled set"`
	MinRating float64 `query:"min_rating" minimum:"0" maximum:"5" doc:"Drop results rated below this (0 disables)"`
	Limit     int     `query:"limit" minimum:"0" maximum:"50" doc:"Per-provider result limit (0 uses the configured default)"`
	Unify     bool    `query:"unify" doc:"Group results describing the same book"`
}

// SearchOutput contains search results. Body is a list of books, or of
// unified books when unify is set.
type SearchOutput struct {
	Cache string `header:"X-Cache" doc:"HIT when replayed from cache, MISS otherwise"`
	Body  any
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	req := service.SearchRequest{
		Query:     input.Query,
		Author:    input.Author,
		ISBN:      input.ISBN,
		Providers: input.Providers,
		Limit:     input.Limit,
		Unify:     input.Unify,
		Caller:    s.caller(ctx),
	}
	if input.MinRating > 0 {
		req.MinRating = &input.MinRating
	}

	result, err := s.services.Search.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	cache := "MISS"
	if result.Cached {
		cache = "HIT"
	}
	return &SearchOutput{Cache: cache, Body: result.Data()}, nil
}
