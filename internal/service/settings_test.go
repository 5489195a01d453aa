package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
)

func TestSettingsService_SnapshotDefaults(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSettingsService(env.durable, config.DefaultsConfig{SearchLimit: 8, HardcoverKey: "hc-key"}, env.logger)

	st := svc.Snapshot(t.Context())
	assert.Equal(t, 8, st.SearchLimit)
	assert.Equal(t, 100, st.ScrapePageLimit)
	assert.Equal(t, "hc-key", st.APIKeys.Hardcover)
	assert.False(t, st.Enabled(domain.SourceHardcover), "a key alone does not enable a provider")
}

func TestSettingsService_SeedThenUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	svc := NewSettingsService(env.durable, config.DefaultsConfig{SearchLimit: 7}, env.logger)

	require.NoError(t, svc.Seed(ctx))
	limit := 12
	updated, err := svc.Update(ctx, &SettingsUpdate{
		Providers:   map[string]bool{domain.SourceITunes: false, domain.SourceHardcover: true},
		SearchLimit: &limit,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.SearchLimit)

	// Seeding again leaves stored settings alone.
	require.NoError(t, svc.Seed(ctx))

	st := svc.Snapshot(ctx)
	assert.Equal(t, 12, st.SearchLimit)
	assert.Equal(t, []string{domain.SourceAudible, domain.SourceGoodreads, domain.SourcePRH, domain.SourceHardcover}, st.EnabledSources())
}

func TestSettingsService_UpdateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.settings

	zero := 0
	_, err := svc.Update(t.Context(), &SettingsUpdate{SearchLimit: &zero})
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	_, err = svc.Update(t.Context(), &SettingsUpdate{Providers: map[string]bool{"openlibrary": true}})
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))
}

func TestLibraryService_PageAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	svc := NewLibraryService(env.durable, env.gw, env.logger)

	old := book("B1", domain.ProviderAudible, "Dune", "Frank Herbert")
	old.PublishedDate = "1965-08-01"
	mustUpsert(t, env, old)
	mustUpsert(t, env, book("B2", domain.ProviderITunes, "Hyperion", "Dan Simmons"))

	page, err := svc.LibraryPage(ctx, domain.LibraryFilter{Year: "1965"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "B1", page.Entries[0].ProviderID)

	_, err = svc.LibraryPage(ctx, domain.LibraryFilter{Year: "65"})
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	page, err = svc.LibraryPage(ctx, domain.LibraryFilter{Limit: 10_000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Limit)

	require.NoError(t, svc.DeleteBook(ctx, "B1"))
	err = svc.DeleteBook(ctx, "B1")
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))

	entry, err := env.gw.GetBook(ctx, "B1")
	require.NoError(t, err)
	assert.Nil(t, entry, "delete clears the cache tier too")
}

func TestAdminService_Cache(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	svc := NewAdminService(env.gw, env.durable, env.activity, env.logger)

	mustUpsert(t, env, book("B1", domain.ProviderAudible, "Dune", "Frank Herbert"))
	mustUpsert(t, env, book("B2", domain.ProviderAudible, "Dune Messiah", "Frank Herbert"))

	keys, err := svc.InspectCache(ctx, "book:", 0)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "book:B1", keys[0].Key)
	assert.NotNil(t, keys[0].ExpiresAt)

	require.NoError(t, svc.DeleteCacheKey(ctx, "book:B1", testCaller))
	keys, err = svc.InspectCache(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	require.NoError(t, svc.FlushCache(ctx, testCaller))
	keys, err = svc.InspectCache(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, keys)

	// The durable tier is untouched by cache maintenance.
	page, err := env.durable.ListBooks(ctx, domain.LibraryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	assert.Equal(t, []domain.ActivityAction{domain.ActivityAdmin, domain.ActivityAdmin}, env.actions(t))
}

func TestAdminService_Traffic(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	svc := NewAdminService(env.gw, env.durable, env.activity, env.logger)

	env.activity.Record(ctx, domain.ActivitySearch, "q=dune", "", domain.Caller{DeviceToken: "a", Country: "DE"}, 0)
	env.activity.Record(ctx, domain.ActivitySearch, "q=dune", "", domain.Caller{DeviceToken: "a", Country: "DE"}, 0)
	env.activity.Record(ctx, domain.ActivityFetchMetadata, "B1", "", domain.Caller{DeviceToken: "b", Country: "US"}, 0)

	stats, err := svc.Traffic(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Activities)
	assert.Equal(t, 2, stats.Devices)
	assert.Equal(t, map[string]int{"DE": 2, "US": 1}, stats.Countries)
	assert.Equal(t, 2, stats.Actions["search"])

	recent, err := svc.RecentActivity(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
