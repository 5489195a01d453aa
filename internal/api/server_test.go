package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/fanout"
	"github.com/listenupapp/listenup-metadata/internal/gateway"
	"github.com/listenupapp/listenup-metadata/internal/importer"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/service"
	"github.com/listenupapp/listenup-metadata/internal/store"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
	"github.com/listenupapp/listenup-metadata/internal/unify"
)

// stubAdapter serves canned results and details.
type stubAdapter struct {
	name     string
	books    []domain.Book
	details  map[string]domain.Book
	searches atomic.Int32
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Search(context.Context, metadata.Criteria) (metadata.Result, error) {
	a.searches.Add(1)
	return metadata.Result{Items: append([]domain.Book(nil), a.books...)}, nil
}

func (a *stubAdapter) FetchDetails(_ context.Context, id string) (*domain.Book, error) {
	if b, ok := a.details[id]; ok {
		return &b, nil
	}
	return nil, metadata.WrapError(a.name, "details", id, metadata.ErrNotFound)
}

func testBook(id, provider, title string) domain.Book {
	b := domain.Book{ProviderID: id, Provider: provider, Title: title, Authors: []string{"Frank Herbert"}}
	b.Normalize()
	return b
}

type testServer struct {
	api     humatest.TestAPI
	server  *Server
	durable *sqlite.Store
	gw      *gateway.Gateway
}

// setupTestServer wires the full service stack over an in-memory cache and
// a temporary database. Inbound rate limiting is off unless cfg enables it.
func setupTestServer(t *testing.T, cfg config.ServerConfig, adapters ...metadata.Adapter) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	cache, err := store.New("", store.Options{InMemory: true}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	durable, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = durable.Close() })

	gw := gateway.New(cache, durable, time.Hour, logger)
	registry := fanout.NewRegistry(adapters...)
	orch := fanout.New(fanout.Options{Timeout: time.Second}, durable, logger)
	settings := service.NewSettingsService(durable, config.DefaultsConfig{}, logger)
	activity := service.NewActivityService(durable, logger)

	var fetcher importer.DetailFetcher = &stubAdapter{name: domain.SourceAudible}
	if len(adapters) > 0 {
		if f, ok := adapters[0].(importer.DetailFetcher); ok {
			fetcher = f
		}
	}
	imp := importer.New(nil, nil, importer.NewGatewayResolver(gw, fetcher, nil), gw, durable,
		importer.Options{Sleep: func(context.Context, time.Duration) error { return nil }}, logger)
	imports := service.NewImportService(imp, settings, activity, config.ImportConfig{Workers: 1}, logger)
	t.Cleanup(func() { _ = imports.Shutdown(context.Background()) })

	services := &Services{
		Search:   service.NewSearchService(registry, orch, gw, unify.New(durable, logger), settings, activity, logger),
		Details:  service.NewDetailsService(registry, gw, durable, settings, activity, logger),
		Import:   imports,
		Lists:    service.NewListService(durable, imp, activity, logger),
		Library:  service.NewLibraryService(durable, gw, logger),
		Admin:    service.NewAdminService(gw, durable, activity, logger),
		Settings: settings,
		Health:   map[string]HealthChecker{"cache": cache, "database": durable},
	}

	s := NewServer(services, cfg, logger)
	t.Cleanup(s.Close)

	return &testServer{
		api:     humatest.Wrap(t, s.API()),
		server:  s,
		durable: durable,
		gw:      gw,
	}
}

// envelope mirrors the wire shape of both success and coded error bodies.
type envelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeEnvelope[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	require.Equal(t, EnvelopeVersion, env.Version)
	return env
}
