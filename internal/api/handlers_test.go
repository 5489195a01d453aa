package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
	"github.com/listenupapp/listenup-metadata/internal/importer"
	"github.com/listenupapp/listenup-metadata/internal/store"
)

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decodeEnvelope[HealthResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["cache"].Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, []string{domain.SourceAudible, domain.SourceITunes, domain.SourceGoodreads, domain.SourcePRH}, env.Data.Providers)
}

func TestSearch_RequiresTerm(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{})

	resp := ts.api.Get("/api/v1/search")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	env := decodeEnvelope[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, string(domainerrors.CodeValidation), env.Code)
}

func TestSearch_CacheHeaderAndReplay(t *testing.T) {
	audible := &stubAdapter{name: domain.SourceAudible, books: []domain.Book{
		testBook("B1", domain.ProviderAudible, "Dune"),
		testBook("B2", domain.ProviderAudible, "Dune Messiah"),
	}}
	ts := setupTestServer(t, config.ServerConfig{}, audible)

	first := ts.api.Get("/api/v1/search?q=dune")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	books := decodeEnvelope[[]domain.Book](t, first)
	require.Len(t, books.Data, 2)
	assert.Equal(t, "Dune", books.Data[0].Title)

	second := ts.api.Get("/api/v1/search?q=Dune")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 1, audible.searches.Load())
}

func TestSearch_Unify(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{},
		&stubAdapter{name: domain.SourceAudible, books: []domain.Book{testBook("B1", domain.ProviderAudible, "Dune")}},
		&stubAdapter{name: domain.SourceITunes, books: []domain.Book{testBook("123", domain.ProviderITunes, "Dune")}},
	)

	resp := ts.api.Get("/api/v1/search?q=dune&unify=true")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[[]domain.UnifiedBook](t, resp)
	require.Len(t, env.Data, 1)
	assert.ElementsMatch(t, []string{domain.ProviderAudible, domain.ProviderITunes}, env.Data[0].AvailableProviders)
}

func TestSearch_RejectsOutOfRangeRating(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{})

	resp := ts.api.Get("/api/v1/search?q=dune&min_rating=9")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	env := decodeEnvelope[any](t, resp)
	assert.Equal(t, string(domainerrors.CodeValidation), env.Code)
}

func TestBooks_DetailsAndDelete(t *testing.T) {
	audible := &stubAdapter{name: domain.SourceAudible, details: map[string]domain.Book{
		"B0001": testBook("B0001", domain.ProviderAudible, "Dune"),
	}}
	ts := setupTestServer(t, config.ServerConfig{}, audible)

	resp := ts.api.Get("/api/v1/books/B0001")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decodeEnvelope[domain.LibraryEntry](t, resp)
	assert.Equal(t, "Dune", env.Data.Title)
	assert.EqualValues(t, 1, env.Data.AccessCount)

	resp = ts.api.Delete("/api/v1/books/B0001")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Delete("/api/v1/books/B0001")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, string(domainerrors.CodeNotFound), decodeEnvelope[any](t, resp).Code)
}

func TestBooks_DetailsNotFound(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{}, &stubAdapter{name: domain.SourceAudible})

	resp := ts.api.Get("/api/v1/books/NOPE")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	activities, err := ts.durable.ListActivities(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, domain.ActivityFetchError, activities[0].Action)
	assert.NotEmpty(t, activities[0].DeviceToken)
}

func TestBooks_CustomFields(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{})

	resp := ts.api.Post("/api/v1/books/B1/custom-fields", map[string]any{
		"fields": map[string]any{"shelf": "sci-fi"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/books/B1/custom-fields", map[string]any{
		"fields": map[string]any{"owned": true},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	env := decodeEnvelope[CustomFieldsResponse](t, resp)
	assert.Equal(t, "B1", env.Data.ID)
	assert.Equal(t, map[string]any{"shelf": "sci-fi", "owned": true}, env.Data.Fields)
}

func TestLibrary_Page(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{})
	for _, b := range []domain.Book{
		testBook("B1", domain.ProviderAudible, "Dune"),
		testBook("123", domain.ProviderITunes, "Hyperion"),
	} {
		_, err := ts.gw.Upsert(t.Context(), &b, 0)
		require.NoError(t, err)
	}

	resp := ts.api.Get("/api/v1/library?provider=itunes")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decodeEnvelope[domain.LibraryPage](t, resp)
	assert.Equal(t, 1, env.Data.Total)
	require.Len(t, env.Data.Entries, 1)
	assert.Equal(t, "Hyperion", env.Data.Entries[0].Title)

	resp = ts.api.Get("/api/v1/library?year=65")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLists_CreateGetDelete(t *testing.T) {
	audible := &stubAdapter{name: domain.SourceAudible, details: map[string]domain.Book{
		"B1": testBook("B1", domain.ProviderAudible, "Dune"),
	}}
	ts := setupTestServer(t, config.ServerConfig{}, audible)

	resp := ts.api.Post("/api/v1/lists", map[string]any{
		"name": "Favorites",
		"ids":  []string{"B1", "MISSING"},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decodeEnvelope[importer.CustomListResult](t, resp)
	assert.Equal(t, 2, created.Data.Requested)
	assert.Equal(t, 1, created.Data.Resolved)

	resp = ts.api.Get("/api/v1/lists")
	require.Equal(t, http.StatusOK, resp.Code)
	lists := decodeEnvelope[ListListsResponse](t, resp)
	require.Len(t, lists.Data.Lists, 1)

	resp = ts.api.Get("/api/v1/lists/" + created.Data.ListID)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeEnvelope[domain.List](t, resp)
	assert.Equal(t, []string{"B1", "MISSING"}, list.Data.Items)

	resp = ts.api.Delete("/api/v1/lists/" + created.Data.ListID)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/lists/" + created.Data.ListID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLists_ImportRejectsBadURL(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{})

	resp := ts.api.Post("/api/v1/lists/import", map[string]any{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Post("/api/v1/lists/import/async", map[string]any{"url": "https://example.com/list/1"})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	env := decodeEnvelope[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION", env.Code)
}

func TestAdmin_CacheMaintenance(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{})
	b := testBook("B1", domain.ProviderAudible, "Dune")
	_, err := ts.gw.Upsert(t.Context(), &b, 0)
	require.NoError(t, err)

	resp := ts.api.Get("/api/v1/admin/cache?prefix=book:")
	require.Equal(t, http.StatusOK, resp.Code)
	keys := decodeEnvelope[CacheKeysResponse](t, resp)
	require.Len(t, keys.Data.Keys, 1)
	assert.Equal(t, store.BookPrefix+"B1", keys.Data.Keys[0].Key)

	resp = ts.api.Delete("/api/v1/admin/cache/book:B1")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Post("/api/v1/admin/cache/flush")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/admin/activity?limit=10")
	require.Equal(t, http.StatusOK, resp.Code)
	activity := decodeEnvelope[ActivityResponse](t, resp)
	assert.Len(t, activity.Data.Activities, 2)

	resp = ts.api.Get("/api/v1/admin/stats/traffic")
	require.Equal(t, http.StatusOK, resp.Code)
	traffic := decodeEnvelope[map[string]any](t, resp)
	assert.EqualValues(t, 2, traffic.Data["activities"])
}

func TestAdmin_ProviderStats(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{},
		&stubAdapter{name: domain.SourceAudible, books: []domain.Book{testBook("B1", domain.ProviderAudible, "Dune")}})

	require.Equal(t, http.StatusOK, ts.api.Get("/api/v1/search?q=dune").Code)

	resp := ts.api.Get("/api/v1/admin/stats/providers?hours=1")
	require.Equal(t, http.StatusOK, resp.Code)
	env := decodeEnvelope[ProviderStatsResponse](t, resp)
	assert.Equal(t, "1h0m0s", env.Data.Window)
	require.Len(t, env.Data.Providers, 1)
	assert.Equal(t, domain.SourceAudible, env.Data.Providers[0].Provider)
}

func TestAdmin_Settings(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{})

	resp := ts.api.Get("/api/v1/admin/settings")
	require.Equal(t, http.StatusOK, resp.Code)
	current := decodeEnvelope[domain.Settings](t, resp)
	assert.True(t, current.Data.Providers[domain.SourceAudible])

	resp = ts.api.Put("/api/v1/admin/settings", map[string]any{
		"providers":    map[string]bool{domain.SourceAudible: false},
		"search_limit": 7,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decodeEnvelope[domain.Settings](t, resp)
	assert.False(t, updated.Data.Providers[domain.SourceAudible])
	assert.Equal(t, 7, updated.Data.SearchLimit)

	resp = ts.api.Put("/api/v1/admin/settings", map[string]any{
		"providers": map[string]bool{"openlibrary": true},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUnknownRoute_Enveloped(t *testing.T) {
	ts := setupTestServer(t, config.ServerConfig{})

	resp := ts.api.Get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decodeEnvelope[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.Equal(t, "route not found", env.Message)
}
