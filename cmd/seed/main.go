// Package main seeds the library from the command line, without the HTTP server.
//
// It imports a public Goodreads or Audible list page, or creates a custom list
// from provider ids. Storage and provider settings are read from the
// environment and .env exactly as the server reads them.
//
// Usage:
//
//	go run ./cmd/seed -url https://www.goodreads.com/list/show/1.Best_Books_Ever
//	go run ./cmd/seed -name Favorites -ids B0036UC2LO,9780593099322
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-metadata/internal/analytics"
	"github.com/listenupapp/listenup-metadata/internal/di/providers"
	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/logger"
	"github.com/listenupapp/listenup-metadata/internal/service"
)

var (
	listURL = flag.String("url", "", "List page to import")
	name    = flag.String("name", "", "Name of a custom list to create")
	ids     = flag.String("ids", "", "Comma-separated provider ids for the custom list")
)

func main() {
	flag.Parse()
	if *listURL == "" && *ids == "" {
		flag.Usage()
		os.Exit(2)
	}

	injector := do.New()
	do.Provide(injector, providers.ProvideEnvConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideDatabase)
	do.Provide(injector, providers.ProvideGateway)
	do.Provide(injector, providers.ProvideRequester)
	do.Provide(injector, providers.ProvideAdapters)
	do.Provide(injector, providers.ProvideImporter)
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideActivityService)
	do.Provide(injector, providers.ProvideImportService)
	do.Provide(injector, providers.ProvideListService)
	defer func() { _ = injector.Shutdown() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// A logger failure means the config did not load; nothing else can start.
	l, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	caller := domain.Caller{DeviceToken: analytics.Localhost, Country: analytics.Local}

	if *listURL != "" {
		imports, err := do.Invoke[*providers.ImportServiceHandle](injector)
		if err != nil {
			l.Fatal("Failed to start importer", "error", err)
		}
		result, err := imports.ImportList(ctx, *listURL, caller)
		if err != nil {
			l.Fatal("Import failed", "url", *listURL, "error", err)
		}
		fmt.Printf("Imported %q: %d of %d items (list %s)\n", result.Title, result.Imported, result.Requested, result.ListID)
		return
	}

	lists, err := do.Invoke[*service.ListService](injector)
	if err != nil {
		l.Fatal("Failed to start list service", "error", err)
	}
	listName := *name
	if listName == "" {
		listName = "Seeded list"
	}
	result, err := lists.CreateCustomList(ctx, &service.CreateListRequest{
		Name: listName,
		IDs:  strings.Split(*ids, ","),
	}, caller)
	if err != nil {
		l.Fatal("Create list failed", "name", listName, "error", err)
	}
	fmt.Printf("Created %q: %d of %d ids resolved (list %s)\n", result.Name, result.Resolved, result.Requested, result.ListID)
}
