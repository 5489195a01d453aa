package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
)

func TestSearchService_RequiresTerm(t *testing.T) {
	env := newTestEnv(t)
	svc := env.searchService()

	_, err := svc.Search(t.Context(), SearchRequest{Query: "  "})
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestSearchService_MergesAndDedupes(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	x := book("X", domain.ProviderAudible, "Dune", "Frank Herbert")
	a := &fakeAdapter{name: domain.SourceAudible, books: []domain.Book{x, book("Y", domain.ProviderAudible, "Dune Messiah", "Frank Herbert")}}
	b := &fakeAdapter{name: domain.SourceITunes, books: []domain.Book{x, book("Z", domain.ProviderITunes, "Children of Dune", "Frank Herbert")}}
	svc := env.searchService(a, b)

	result, err := svc.Search(ctx, SearchRequest{Query: "dune", Providers: "audible,itunes", Caller: testCaller})
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, []string{"X", "Y", "Z"}, ids(result.Books))

	page, err := env.durable.ListBooks(ctx, domain.LibraryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	for _, e := range page.Entries {
		assert.EqualValues(t, 1, e.AccessCount, e.ProviderID)
	}

	assert.Equal(t, []domain.ActivityAction{domain.ActivitySearch}, env.actions(t))
}

func TestSearchService_ReplayIsByteIdentical(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	a := &fakeAdapter{name: domain.SourceAudible, books: []domain.Book{book("X", domain.ProviderAudible, "Dune", "Frank Herbert")}}
	svc := env.searchService(a)
	req := SearchRequest{Query: "Dune", Author: "Frank Herbert"}

	first, err := svc.Search(ctx, req)
	require.NoError(t, err)
	require.EqualValues(t, 1, a.searches.Load())

	// Case and spacing do not change the fingerprint.
	req.Query = "  dune "
	second, err := svc.Search(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.Raw, second.Raw)
	assert.Equal(t, ids(first.Books), ids(second.Books))
	assert.EqualValues(t, 1, a.searches.Load(), "replay must not call adapters")
}

func TestSearchService_DistinctParamsMiss(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	a := &fakeAdapter{name: domain.SourceAudible, books: []domain.Book{book("X", domain.ProviderAudible, "Dune", "Frank Herbert")}}
	svc := env.searchService(a)

	_, err := svc.Search(ctx, SearchRequest{Query: "dune"})
	require.NoError(t, err)
	_, err = svc.Search(ctx, SearchRequest{Query: "dune", Limit: 3})
	require.NoError(t, err)
	_, err = svc.Search(ctx, SearchRequest{Query: "dune", Unify: true})
	require.NoError(t, err)

	assert.EqualValues(t, 3, a.searches.Load())
}

func TestSearchService_ProviderToggleMisses(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	a := &fakeAdapter{name: domain.SourceAudible, books: []domain.Book{book("X", domain.ProviderAudible, "Dune", "Frank Herbert")}}
	b := &fakeAdapter{name: domain.SourceITunes, books: []domain.Book{book("Z", domain.ProviderITunes, "Dune", "Frank Herbert")}}
	svc := env.searchService(a, b)
	req := SearchRequest{Query: "dune"}

	first, err := svc.Search(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Z"}, ids(first.Books))

	_, err = env.settings.Update(ctx, &SettingsUpdate{Providers: map[string]bool{domain.SourceITunes: false}})
	require.NoError(t, err)

	second, err := svc.Search(ctx, req)
	require.NoError(t, err)
	assert.False(t, second.Cached, "a changed provider set must not replay the old result")
	assert.Equal(t, []string{"X"}, ids(second.Books))
	assert.EqualValues(t, 2, a.searches.Load())
	assert.EqualValues(t, 1, b.searches.Load())

	// An explicit list naming the same active set shares the entry.
	third, err := svc.Search(ctx, SearchRequest{Query: "dune", Providers: "audible"})
	require.NoError(t, err)
	assert.True(t, third.Cached)

	_, err = env.settings.Update(ctx, &SettingsUpdate{Providers: map[string]bool{domain.SourceITunes: true}})
	require.NoError(t, err)
	fourth, err := svc.Search(ctx, req)
	require.NoError(t, err)
	assert.True(t, fourth.Cached)
	assert.Equal(t, first.Raw, fourth.Raw)
}

func TestSearchService_MinRating(t *testing.T) {
	env := newTestEnv(t)

	rated := book("R", domain.ProviderAudible, "Dune", "Frank Herbert")
	rated.Rating = domain.Ptr(4.5)
	low := book("L", domain.ProviderAudible, "Dune Messiah", "Frank Herbert")
	low.Rating = domain.Ptr(3.0)
	unrated := book("U", domain.ProviderAudible, "Dune Notes", "Frank Herbert")

	a := &fakeAdapter{name: domain.SourceAudible, books: []domain.Book{rated, low, unrated}}
	svc := env.searchService(a)

	result, err := svc.Search(t.Context(), SearchRequest{Query: "dune", MinRating: domain.Ptr(4.0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"R"}, ids(result.Books))
}

func TestSearchService_Unify(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	a := &fakeAdapter{name: domain.SourceAudible, books: []domain.Book{book("B1", domain.ProviderAudible, "Dune", "Frank Herbert")}}
	b := &fakeAdapter{name: domain.SourceITunes, books: []domain.Book{
		book("123", domain.ProviderITunes, "DUNE", "Frank Herbert"),
		book("456", domain.ProviderITunes, "Hyperion", "Dan Simmons"),
	}}
	svc := env.searchService(a, b)

	result, err := svc.Search(ctx, SearchRequest{Query: "dune", Providers: "itunes,audible", Unify: true})
	require.NoError(t, err)
	require.Len(t, result.Unified, 2)
	assert.Nil(t, result.Books)

	merged := result.Unified[0]
	assert.Equal(t, "B1", merged.ProviderID, "highest priority member presents the group")
	assert.Equal(t, []string{domain.ProviderAudible, domain.ProviderITunes}, merged.AvailableProviders)
	assert.NotEmpty(t, merged.UnifiedID)

	n, err := env.durable.CountEntities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSearchService_DisabledProvidersSkipped(t *testing.T) {
	env := newTestEnv(t)

	on := &fakeAdapter{name: domain.SourceAudible, books: []domain.Book{book("X", domain.ProviderAudible, "Dune", "Frank Herbert")}}
	off := &fakeAdapter{name: domain.SourceHardcover, books: []domain.Book{book("hc:dune", domain.ProviderHardcover, "Dune", "Frank Herbert")}}
	svc := env.searchService(on, off)

	result, err := svc.Search(t.Context(), SearchRequest{Query: "dune"})
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, ids(result.Books))
	assert.Zero(t, off.searches.Load())
}

func TestSearchService_RecordsProviderStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	a := &fakeAdapter{name: domain.SourceAudible, books: []domain.Book{book("X", domain.ProviderAudible, "Dune", "Frank Herbert")}}
	svc := env.searchService(a)

	_, err := svc.Search(ctx, SearchRequest{Query: "dune"})
	require.NoError(t, err)

	admin := NewAdminService(env.gw, env.durable, env.activity, env.logger)
	stats, err := admin.ProviderStats(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, domain.SourceAudible, stats[0].Provider)
	assert.Equal(t, 1, stats[0].Calls)
	assert.Zero(t, stats[0].Errors)
}
