// Package main provides a read-only inspector for the cache and library
// database.
//
// Usage:
//
//	go run ./cmd/dbinspect                    # summary of both tiers
//	go run ./cmd/dbinspect -prefix search:    # list search cache keys
//	go run ./cmd/dbinspect -key book:B0036UC2LO
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/store"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
)

var (
	prefix = flag.String("prefix", "", "List cache keys under this prefix")
	limit  = flag.Int("limit", 20, "Maximum keys to list")
	key    = flag.String("key", "", "Dump the value stored under this cache key")
)

func main() {
	flag.Parse()

	// Storage paths come from the environment and .env; flags here are our own.
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cache, err := store.New(cfg.Storage.CachePath, store.Options{ReadOnly: true}, nil)
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()

	if *key != "" {
		raw, err := cache.GetRaw(ctx, *key)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *key, err)
		}
		fmt.Println(string(raw))
		return
	}

	if *prefix != "" {
		listKeys(ctx, cache, *prefix, *limit)
		return
	}

	fmt.Println("=== Cache ===")
	for _, p := range []string{store.BookPrefix, store.SearchPrefix, store.GeoPrefix} {
		keys, err := cache.Inspect(ctx, p, 1<<20)
		if err != nil {
			log.Fatalf("Failed to inspect %s: %v", p, err)
		}
		var size int64
		for _, k := range keys {
			size += k.Size
		}
		fmt.Printf("%-8s %6d keys %10d bytes\n", strings.TrimSuffix(p, ":"), len(keys), size)
	}
	fmt.Println()

	db, err := sqlite.Open(cfg.Storage.DatabasePath, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	page, err := db.ListBooks(ctx, domain.LibraryFilter{Limit: 5})
	if err != nil {
		log.Fatalf("Failed to list library: %v", err)
	}
	entities, err := db.CountEntities(ctx)
	if err != nil {
		log.Fatalf("Failed to count unified books: %v", err)
	}
	lists, err := db.ListLists(ctx)
	if err != nil {
		log.Fatalf("Failed to list lists: %v", err)
	}

	fmt.Println("=== Library ===")
	fmt.Printf("Library entries: %d\n", page.Total)
	fmt.Printf("Unified books:   %d\n", entities)
	fmt.Printf("Lists:           %d\n", len(lists))
	if len(page.Entries) > 0 {
		fmt.Println()
		fmt.Println("Most recently accessed:")
		for _, e := range page.Entries {
			fmt.Printf("  [%s] %s (%s) accessed %d times\n", e.Provider, e.Title, e.ProviderID, e.AccessCount)
		}
	}
}

func listKeys(ctx context.Context, cache *store.Store, prefix string, limit int) {
	keys, err := cache.Inspect(ctx, prefix, limit)
	if err != nil {
		log.Fatalf("Failed to inspect %s: %v", prefix, err)
	}
	for _, k := range keys {
		expires := "never"
		if k.ExpiresAt != nil {
			expires = k.ExpiresAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-60s %8d bytes  expires %s\n", k.Key, k.Size, expires)
	}
	fmt.Printf("%d keys\n", len(keys))
}
