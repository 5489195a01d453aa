// Package di provides dependency injection configuration for the metadata aggregator.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/di/providers"
	"github.com/listenupapp/listenup-metadata/internal/logger"
	"github.com/listenupapp/listenup-metadata/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideCache)
	do.Provide(injector, providers.ProvideDatabase)
	do.Provide(injector, providers.ProvideGateway)

	// Metadata layer
	do.Provide(injector, providers.ProvideRequester)
	do.Provide(injector, providers.ProvideAdapters)
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideOrchestrator)
	do.Provide(injector, providers.ProvideUnifier)
	do.Provide(injector, providers.ProvideImporter)
	do.Provide(injector, providers.ProvideAttributor)

	// Business services
	do.Provide(injector, providers.ProvideSettingsService)
	do.Provide(injector, providers.ProvideActivityService)
	do.Provide(injector, providers.ProvideSearchService)
	do.Provide(injector, providers.ProvideDetailsService)
	do.Provide(injector, providers.ProvideImportService)
	do.Provide(injector, providers.ProvideListService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideAdminService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.CacheHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.DatabaseHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.SettingsService](injector); err != nil {
		return err
	}

	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
