package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/fanout"
	"github.com/listenupapp/listenup-metadata/internal/gateway"
	"github.com/listenupapp/listenup-metadata/internal/importer"
	"github.com/listenupapp/listenup-metadata/internal/logger"
	"github.com/listenupapp/listenup-metadata/internal/service"
	"github.com/listenupapp/listenup-metadata/internal/unify"
)

// ProvideSettingsService provides the runtime settings service and seeds
// stored settings from the config on first start.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	svc := service.NewSettingsService(db.Store, cfg.Defaults, log.Component("settings"))
	if err := svc.Seed(context.Background()); err != nil {
		return nil, err
	}
	return svc, nil
}

// ProvideActivityService provides the activity log service.
func ProvideActivityService(i do.Injector) (*service.ActivityService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	return service.NewActivityService(db.Store, log.Component("activity")), nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(
		do.MustInvoke[*fanout.Registry](i),
		do.MustInvoke[*fanout.Orchestrator](i),
		do.MustInvoke[*gateway.Gateway](i),
		do.MustInvoke[*unify.Engine](i),
		do.MustInvoke[*service.SettingsService](i),
		do.MustInvoke[*service.ActivityService](i),
		log.Component("search"),
	), nil
}

// ProvideDetailsService provides the details service.
func ProvideDetailsService(i do.Injector) (*service.DetailsService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	return service.NewDetailsService(
		do.MustInvoke[*fanout.Registry](i),
		do.MustInvoke[*gateway.Gateway](i),
		db.Store,
		do.MustInvoke[*service.SettingsService](i),
		do.MustInvoke[*service.ActivityService](i),
		log.Component("details"),
	), nil
}

// ProvideImporter provides the list importer. Goodreads pages are parsed
// structurally; Audible pages yield ASINs resolved through Audible.
func ProvideImporter(i do.Injector) (*importer.Importer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)
	gw := do.MustInvoke[*gateway.Gateway](i)
	a := do.MustInvoke[*Adapters](i)

	l := log.Component("importer")
	bench := &fanout.Benchmarker{Timeout: cfg.Providers.CallTimeout, Sink: db.Store, Logger: l}

	return importer.New(
		a.Goodreads,
		a.Audible,
		importer.NewGatewayResolver(gw, a.Audible, bench),
		gw,
		db.Store,
		importer.Options{
			ChunkSize:  cfg.Import.ChunkSize,
			ChunkPause: cfg.Import.ChunkPause,
			Bench:      bench,
		},
		l,
	), nil
}

// ImportServiceHandle wraps the import service with shutdown capability.
type ImportServiceHandle struct {
	*service.ImportService
}

// Shutdown implements do.Shutdownable. Queued imports drain first.
func (h *ImportServiceHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.ImportService.Shutdown(ctx)
}

// ProvideImportService provides the import service and starts its workers.
func ProvideImportService(i do.Injector) (*ImportServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewImportService(
		do.MustInvoke[*importer.Importer](i),
		do.MustInvoke[*service.SettingsService](i),
		do.MustInvoke[*service.ActivityService](i),
		cfg.Import,
		log.Component("imports"),
	)

	log.Info("Import workers started", "workers", cfg.Import.Workers, "queue_size", cfg.Import.QueueSize)
	return &ImportServiceHandle{ImportService: svc}, nil
}

// ProvideListService provides the list service.
func ProvideListService(i do.Injector) (*service.ListService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	return service.NewListService(
		db.Store,
		do.MustInvoke[*importer.Importer](i),
		do.MustInvoke[*service.ActivityService](i),
		log.Component("lists"),
	), nil
}

// ProvideLibraryService provides the library browsing service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	return service.NewLibraryService(db.Store, do.MustInvoke[*gateway.Gateway](i), log.Component("library")), nil
}

// ProvideAdminService provides the admin service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	return service.NewAdminService(
		do.MustInvoke[*gateway.Gateway](i),
		db.Store,
		do.MustInvoke[*service.ActivityService](i),
		log.Component("admin"),
	), nil
}
