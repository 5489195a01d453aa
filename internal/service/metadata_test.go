package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
)

func TestDetailsService_FallsThroughChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	found := book("1234", domain.ProviderITunes, "Dune", "Frank Herbert")
	audible := &fakeAdapter{name: domain.SourceAudible}
	itunes := &fakeAdapter{name: domain.SourceITunes, details: map[string]*domain.Book{"1234": &found}}
	prh := &fakeAdapter{name: domain.SourcePRH}
	svc := env.detailsService(audible, itunes, prh)

	entry, err := svc.GetDetails(ctx, "1234", testCaller)
	require.NoError(t, err)
	assert.Equal(t, "Dune", entry.Title)
	assert.EqualValues(t, 1, entry.AccessCount)
	assert.NotNil(t, entry.CustomMetadata)

	assert.EqualValues(t, 1, audible.detailCalls.Load())
	assert.EqualValues(t, 1, itunes.detailCalls.Load())
	assert.Zero(t, prh.detailCalls.Load(), "short ids never reach PRH")

	// Second read is served from storage and counts as an access.
	entry, err = svc.GetDetails(ctx, "1234", testCaller)
	require.NoError(t, err)
	assert.EqualValues(t, 2, entry.AccessCount)
	assert.EqualValues(t, 1, itunes.detailCalls.Load())

	assert.Equal(t, []domain.ActivityAction{domain.ActivityFetchMetadata, domain.ActivityFetchMetadata}, env.actions(t))
}

func TestDetailsService_PRHOnlyForISBN13(t *testing.T) {
	env := newTestEnv(t)

	isbn := "9780593099322"
	found := book(isbn, domain.ProviderPRH, "Dune", "Frank Herbert")
	prh := &fakeAdapter{name: domain.SourcePRH, details: map[string]*domain.Book{isbn: &found}}
	svc := env.detailsService(&fakeAdapter{name: domain.SourceAudible}, &fakeAdapter{name: domain.SourceITunes}, prh)

	entry, err := svc.GetDetails(t.Context(), isbn, testCaller)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderPRH, entry.Provider)
}

func TestDetailsService_NotFound(t *testing.T) {
	env := newTestEnv(t)
	svc := env.detailsService(&fakeAdapter{name: domain.SourceAudible}, &fakeAdapter{name: domain.SourceITunes})

	_, err := svc.GetDetails(t.Context(), "B000000000", testCaller)
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
	assert.Equal(t, []domain.ActivityAction{domain.ActivityFetchError}, env.actions(t))
}

func TestDetailsService_EmptyID(t *testing.T) {
	env := newTestEnv(t)
	svc := env.detailsService()

	_, err := svc.GetDetails(t.Context(), " ", testCaller)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestDetailsService_AttachesCustomFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	mustUpsert(t, env, book("B1", domain.ProviderAudible, "Dune", "Frank Herbert"))
	lists := NewListService(env.durable, env.importer(nil), env.activity, env.logger)
	_, err := lists.RecordCustomFields(ctx, &CustomFieldsRequest{ID: "B1", Fields: map[string]any{"shelf": "sci-fi"}}, testCaller)
	require.NoError(t, err)

	svc := env.detailsService()
	entry, err := svc.GetDetails(ctx, "B1", testCaller)
	require.NoError(t, err)
	assert.Equal(t, "sci-fi", entry.CustomMetadata["shelf"])

	// Custom fields never leak into the cached copy.
	cached, err := env.gw.GetBook(ctx, "B1")
	require.NoError(t, err)
	assert.Empty(t, cached.CustomMetadata)
}
