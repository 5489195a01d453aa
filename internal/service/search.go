package service

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
	"github.com/listenupapp/listenup-metadata/internal/fanout"
	"github.com/listenupapp/listenup-metadata/internal/gateway"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/unify"
)

// SearchRequest is one multi-provider search.
type SearchRequest struct {
	Query     string
	Author    string
	ISBN      string
	Providers string // comma-separated override of the enabled providers
	MinRating *float64
	Limit     int
	Unify     bool
	Caller    domain.Caller
}

// SearchResult carries the encoded result set plus its decoded form.
// Raw is what was cached; a replay within the TTL returns the same bytes.
type SearchResult struct {
	Raw     []byte
	Cached  bool
	Books   []domain.Book        // set when the search was not unified
	Unified []domain.UnifiedBook // set when it was
}

// Data returns whichever result slice the search produced.
func (r *SearchResult) Data() any {
	if r.Unified != nil {
		return r.Unified
	}
	return r.Books
}

// SearchService runs cached fan-out searches.
type SearchService struct {
	registry     *fanout.Registry
	orchestrator *fanout.Orchestrator
	gateway      *gateway.Gateway
	unifier      *unify.Engine
	settings     *SettingsService
	activity     *ActivityService
	logger       *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(
	registry *fanout.Registry,
	orchestrator *fanout.Orchestrator,
	gw *gateway.Gateway,
	unifier *unify.Engine,
	settings *SettingsService,
	activity *ActivityService,
	logger *slog.Logger,
) *SearchService {
	return &SearchService{
		registry:     registry,
		orchestrator: orchestrator,
		gateway:      gw,
		unifier:      unifier,
		settings:     settings,
		activity:     activity,
		logger:       logger,
	}
}

// Search fans req out to the selected providers. The only error it returns
// is a validation error for a request with no search term.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	start := time.Now()

	crit := metadata.Criteria{
		Query:  strings.TrimSpace(req.Query),
		Author: strings.TrimSpace(req.Author),
		ISBN:   strings.TrimSpace(req.ISBN),
	}
	if crit.Empty() {
		return nil, domainerrors.Validation("must provide q, author, or isbn")
	}

	snapshot := s.settings.Snapshot(ctx)
	crit.Keys = snapshot.APIKeys
	crit.Limit = req.Limit
	if crit.Limit <= 0 {
		crit.Limit = snapshot.SearchLimit
	}
	ctx = metadata.WithKeys(ctx, snapshot.APIKeys)

	// The active provider set is part of the key, so toggling a provider in
	// settings misses the cache.
	adapters := s.registry.Select(fanout.ParseProviders(req.Providers), snapshot)
	active := make([]string, len(adapters))
	for i, a := range adapters {
		active[i] = a.Name()
	}
	fp := gateway.Fingerprint(gateway.SearchParams{
		Query:     crit.Query,
		Author:    crit.Author,
		ISBN:      crit.ISBN,
		Providers: active,
		MinRating: req.MinRating,
		Limit:     crit.Limit,
		Unify:     req.Unify,
	})
	target := searchTarget(crit)

	if raw, err := s.gateway.GetSearch(ctx, fp); err != nil {
		s.logger.Warn("search cache read failed", "fingerprint", fp, "error", err)
	} else if raw != nil {
		result, derr := decodeSearch(raw, req.Unify)
		if derr == nil {
			s.activity.Record(ctx, domain.ActivitySearch, target, "cache hit", req.Caller, time.Since(start))
			return result, nil
		}
		s.logger.Warn("discarding unreadable cached search", "fingerprint", fp, "error", derr)
	}

	requestID := uuid.NewString()
	results := s.orchestrator.Run(ctx, requestID, crit, adapters)
	books := fanout.Merge(results, req.MinRating)

	for i := range books {
		if _, err := s.gateway.Upsert(ctx, &books[i], 0); err != nil {
			s.logger.Warn("failed to persist search result",
				"request_id", requestID,
				"id", books[i].ProviderID,
				"error", err,
			)
		}
	}

	result := &SearchResult{Books: books}
	cacheable := true
	if req.Unify {
		unified, err := s.unifier.Unify(ctx, books)
		if err != nil {
			s.logger.Warn("unification failed, returning ungrouped results",
				"request_id", requestID,
				"error", err,
			)
			unified = ungrouped(books)
			cacheable = false
		}
		if unified == nil {
			unified = []domain.UnifiedBook{}
		}
		result = &SearchResult{Unified: unified}
	}

	raw, err := json.Marshal(result.Data())
	if err != nil {
		// Books are plain data; this only fails on a broken invariant.
		s.logger.Error("failed to encode search result", "request_id", requestID, "error", err)
		cacheable = false
	}
	result.Raw = raw

	if cacheable {
		if err := s.gateway.PutSearch(ctx, fp, raw, 0); err != nil {
			s.logger.Warn("search cache write failed", "fingerprint", fp, "error", err)
		}
	}

	s.activity.Record(ctx, domain.ActivitySearch, target,
		fmt.Sprintf("%d results from %d providers", len(books), len(adapters)),
		req.Caller, time.Since(start))

	s.logger.Debug("search complete",
		"request_id", requestID,
		"providers", len(adapters),
		"results", len(books),
		"unify", req.Unify,
	)
	return result, nil
}

func decodeSearch(raw []byte, unified bool) (*SearchResult, error) {
	result := &SearchResult{Raw: raw, Cached: true}
	if unified {
		result.Unified = make([]domain.UnifiedBook, 0)
		if err := json.Unmarshal(raw, &result.Unified); err != nil {
			return nil, err
		}
		return result, nil
	}
	result.Books = make([]domain.Book, 0)
	if err := json.Unmarshal(raw, &result.Books); err != nil {
		return nil, err
	}
	return result, nil
}

// ungrouped presents each book as its own group, without an entity id.
func ungrouped(books []domain.Book) []domain.UnifiedBook {
	out := make([]domain.UnifiedBook, len(books))
	for i, b := range books {
		out[i] = domain.NewUnifiedBook("", b, []domain.Book{b})
	}
	return out
}

func searchTarget(c metadata.Criteria) string {
	var parts []string
	if c.Query != "" {
		parts = append(parts, "q="+c.Query)
	}
	if c.Author != "" {
		parts = append(parts, "author="+c.Author)
	}
	if c.ISBN != "" {
		parts = append(parts, "isbn="+c.ISBN)
	}
	return strings.Join(parts, " ")
}
