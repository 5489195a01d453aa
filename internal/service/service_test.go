package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/fanout"
	"github.com/listenupapp/listenup-metadata/internal/gateway"
	"github.com/listenupapp/listenup-metadata/internal/importer"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/store"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
	"github.com/listenupapp/listenup-metadata/internal/unify"
)

// fakeAdapter returns canned search results and details and counts calls.
type fakeAdapter struct {
	name        string
	books       []domain.Book
	details     map[string]*domain.Book
	searches    atomic.Int32
	detailCalls atomic.Int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Search(context.Context, metadata.Criteria) (metadata.Result, error) {
	f.searches.Add(1)
	items := make([]domain.Book, len(f.books))
	copy(items, f.books)
	return metadata.Result{Items: items}, nil
}

func (f *fakeAdapter) FetchDetails(_ context.Context, id string) (*domain.Book, error) {
	f.detailCalls.Add(1)
	if b, ok := f.details[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, metadata.WrapError(f.name, "details", id, metadata.ErrNotFound)
}

func book(id, provider, title, author string) domain.Book {
	b := domain.Book{ProviderID: id, Provider: provider, Title: title, Authors: []string{author}}
	b.Normalize()
	return b
}

type testEnv struct {
	durable  *sqlite.Store
	cache    *store.Store
	gw       *gateway.Gateway
	settings *SettingsService
	activity *ActivityService
	logger   *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	cache, err := store.New("", store.Options{InMemory: true}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	durable, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = durable.Close() })

	return &testEnv{
		durable:  durable,
		cache:    cache,
		gw:       gateway.New(cache, durable, time.Hour, logger),
		settings: NewSettingsService(durable, config.DefaultsConfig{}, logger),
		activity: NewActivityService(durable, logger),
		logger:   logger,
	}
}

func (e *testEnv) registry(adapters ...metadata.Adapter) *fanout.Registry {
	return fanout.NewRegistry(adapters...)
}

func (e *testEnv) searchService(adapters ...metadata.Adapter) *SearchService {
	orch := fanout.New(fanout.Options{Timeout: time.Second}, e.durable, e.logger)
	return NewSearchService(e.registry(adapters...), orch, e.gw, unify.New(e.durable, e.logger), e.settings, e.activity, e.logger)
}

func (e *testEnv) detailsService(adapters ...metadata.Adapter) *DetailsService {
	return NewDetailsService(e.registry(adapters...), e.gw, e.durable, e.settings, e.activity, e.logger)
}

func (e *testEnv) importer(fetcher importer.DetailFetcher) *importer.Importer {
	return e.importerWith(nil, fetcher)
}

func (e *testEnv) importerWith(gr importer.ListScraper, fetcher importer.DetailFetcher) *importer.Importer {
	noSleep := func(context.Context, time.Duration) error { return nil }
	return importer.New(gr, nil, importer.NewGatewayResolver(e.gw, fetcher, nil), e.gw, e.durable,
		importer.Options{Sleep: noSleep, PageDelay: func() time.Duration { return 0 }}, e.logger)
}

// actions returns the recorded activity actions, newest first.
func (e *testEnv) actions(t *testing.T) []domain.ActivityAction {
	t.Helper()
	activities, err := e.durable.ListActivities(t.Context(), 100)
	require.NoError(t, err)
	out := make([]domain.ActivityAction, len(activities))
	for i, a := range activities {
		out[i] = a.Action
	}
	return out
}

func ids(books []domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ProviderID
	}
	return out
}

var testCaller = domain.Caller{DeviceToken: "abc123def456", Country: "Local"}

func mustUpsert(t *testing.T, env *testEnv, b domain.Book) {
	t.Helper()
	_, err := env.gw.Upsert(t.Context(), &b, 0)
	require.NoError(t, err, "upsert %s", b.ProviderID)
}
