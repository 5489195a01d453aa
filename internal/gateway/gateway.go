// Package gateway fronts the two storage tiers. Reads go to the ephemeral
// cache first and fall back to the durable store; writes land in the
// durable store and are then copied into the cache. The tiers are never
// locked together.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/store"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
)

// Gateway reads and writes library entries and search result sets across
// the cache and the durable store.
type Gateway struct {
	cache   *store.Store
	durable *sqlite.Store
	ttl     time.Duration
	logger  *slog.Logger
}

// New creates a gateway. A non-positive ttl uses store.DefaultTTL.
func New(cache *store.Store, durable *sqlite.Store, ttl time.Duration, logger *slog.Logger) *Gateway {
	if ttl <= 0 {
		ttl = store.DefaultTTL
	}
	return &Gateway{
		cache:   cache,
		durable: durable,
		ttl:     ttl,
		logger:  logger,
	}
}

func bookKey(id string) string { return store.BookPrefix + id }

// GetBook returns the library entry for id and records the access.
// A miss in both tiers returns (nil, nil): the caller should fetch live.
func (g *Gateway) GetBook(ctx context.Context, id string) (*domain.LibraryEntry, error) {
	var cached domain.LibraryEntry
	err := g.cache.Get(ctx, bookKey(id), &cached)
	switch {
	case err == nil:
		entry, terr := g.durable.TouchBook(ctx, id)
		if errors.Is(terr, store.ErrNotFound) {
			// Cache outlived the durable row; count the access locally.
			now := time.Now()
			cached.AccessCount++
			cached.LastAccessed = &now
			entry, terr = &cached, nil
		}
		if terr != nil {
			return nil, fmt.Errorf("touch %s: %w", id, terr)
		}
		g.writeCache(ctx, entry, 0)
		return entry, nil
	case !errors.Is(err, store.ErrNotFound):
		g.logger.Warn("cache read failed", "key", bookKey(id), "error", err)
	}

	entry, err := g.durable.TouchBook(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	g.writeCache(ctx, entry, 0)
	return entry, nil
}

// Upsert merges book into the durable store and refreshes its cache entry.
// A non-positive ttl uses the gateway default.
func (g *Gateway) Upsert(ctx context.Context, book *domain.Book, ttl time.Duration) (*domain.LibraryEntry, error) {
	entry, err := g.durable.UpsertBook(ctx, book)
	if err != nil {
		return nil, fmt.Errorf("upsert %s: %w", book.ProviderID, err)
	}
	g.writeCache(ctx, entry, ttl)
	return entry, nil
}

// DeleteBook removes id from both tiers.
// Returns store.ErrNotFound when the durable store has no such entry.
func (g *Gateway) DeleteBook(ctx context.Context, id string) error {
	if err := g.cache.Delete(ctx, bookKey(id)); err != nil {
		g.logger.Warn("cache delete failed", "key", bookKey(id), "error", err)
	}
	return g.durable.DeleteBook(ctx, id)
}

// GetSearch returns the stored result set for fingerprint, or nil on a miss.
func (g *Gateway) GetSearch(ctx context.Context, fingerprint string) ([]byte, error) {
	data, err := g.cache.GetRaw(ctx, store.SearchPrefix+fingerprint)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

// PutSearch stores a result set verbatim so replays are byte-identical.
func (g *Gateway) PutSearch(ctx context.Context, fingerprint string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = g.ttl
	}
	return g.cache.SetRaw(ctx, store.SearchPrefix+fingerprint, data, ttl)
}

// InspectCache lists live cache keys under prefix.
func (g *Gateway) InspectCache(ctx context.Context, prefix string, limit int) ([]store.KeyInfo, error) {
	return g.cache.Inspect(ctx, prefix, limit)
}

// DeleteCacheKey removes one cache entry. Missing keys are not an error.
func (g *Gateway) DeleteCacheKey(ctx context.Context, key string) error {
	return g.cache.Delete(ctx, key)
}

// FlushCache drops every cache entry. The durable store is untouched.
func (g *Gateway) FlushCache(ctx context.Context) error {
	return g.cache.Flush(ctx)
}

// Cache failures never fail the caller.
func (g *Gateway) writeCache(ctx context.Context, entry *domain.LibraryEntry, ttl time.Duration) {
	if ttl <= 0 {
		ttl = g.ttl
	}
	key := bookKey(entry.ProviderID)
	if err := g.cache.Set(ctx, key, entry, ttl); err != nil {
		g.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
