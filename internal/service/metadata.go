package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
	"github.com/listenupapp/listenup-metadata/internal/fanout"
	"github.com/listenupapp/listenup-metadata/internal/gateway"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
)

// detailStep is one provider in the live detail chain.
type detailStep struct {
	name    string
	accepts func(id string) bool
}

// detailChain is tried in order after both storage tiers miss.
var detailChain = []detailStep{
	{name: domain.SourceAudible, accepts: func(string) bool { return true }},
	{name: domain.SourceITunes, accepts: func(string) bool { return true }},
	{name: domain.SourcePRH, accepts: isISBN13},
}

func isISBN13(id string) bool {
	if len(id) != 13 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DetailsService resolves single records through the storage tiers and
// then the provider chain.
type DetailsService struct {
	registry *fanout.Registry
	gateway  *gateway.Gateway
	store    *sqlite.Store
	settings *SettingsService
	activity *ActivityService
	flight   singleflight.Group
	logger   *slog.Logger
}

// NewDetailsService creates a new details service.
func NewDetailsService(
	registry *fanout.Registry,
	gw *gateway.Gateway,
	store *sqlite.Store,
	settings *SettingsService,
	activity *ActivityService,
	logger *slog.Logger,
) *DetailsService {
	return &DetailsService{
		registry: registry,
		gateway:  gw,
		store:    store,
		settings: settings,
		activity: activity,
		logger:   logger,
	}
}

// liveFetch is the shared outcome of one collapsed provider lookup.
type liveFetch struct {
	entry  *domain.LibraryEntry
	source string
}

// GetDetails returns the library entry for id with its custom fields.
// Concurrent misses for the same id share one provider lookup.
func (s *DetailsService) GetDetails(ctx context.Context, id string, caller domain.Caller) (*domain.LibraryEntry, error) {
	start := time.Now()
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domainerrors.Validation("id is required")
	}

	entry, err := s.gateway.GetBook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	source := "library"

	if entry == nil {
		keys := s.settings.Snapshot(ctx).APIKeys
		ch := s.flight.DoChan(id, func() (any, error) {
			// Shared by every waiter; one caller leaving must not cancel it.
			fetchCtx := metadata.WithKeys(context.WithoutCancel(ctx), keys)
			return s.fetchLive(fetchCtx, id)
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			live := res.Val.(*liveFetch)
			if live.entry == nil {
				s.logger.Info("no provider has book", "id", id)
				s.activity.Record(ctx, domain.ActivityFetchError, id, "not found", caller, time.Since(start))
				return nil, domainerrors.NotFoundf("book %s not found", id)
			}
			// Waiters share the pointer; give each its own copy to decorate.
			shared := *live.entry
			entry, source = &shared, live.source
		}
	}

	fields, err := s.store.GetCustomFields(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load custom fields", "id", id, "error", err)
		fields = map[string]any{}
	}
	entry.CustomMetadata = fields

	s.activity.Record(ctx, domain.ActivityFetchMetadata, id, source, caller, time.Since(start))
	return entry, nil
}

// fetchLive walks the detail chain and stores the first hit. A nil entry
// with a nil error means no provider knows id.
func (s *DetailsService) fetchLive(ctx context.Context, id string) (*liveFetch, error) {
	for _, step := range detailChain {
		if !step.accepts(id) {
			continue
		}
		adapter, ok := s.registry.Get(step.name)
		if !ok {
			continue
		}

		book, err := adapter.FetchDetails(ctx, id)
		if err != nil {
			if !errors.Is(err, metadata.ErrNotFound) {
				s.logger.Warn("detail fetch failed",
					"provider", step.name,
					"id", id,
					"error", err,
				)
			}
			continue
		}
		if book == nil {
			continue
		}

		entry, err := s.gateway.Upsert(ctx, book, 0)
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", id, err)
		}
		s.logger.Debug("fetched book from provider", "provider", step.name, "id", id)
		return &liveFetch{entry: entry, source: adapter.Name()}, nil
	}
	return &liveFetch{}, nil
}
