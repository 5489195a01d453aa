package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/gateway"
	"github.com/listenupapp/listenup-metadata/internal/logger"
	"github.com/listenupapp/listenup-metadata/internal/store"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
)

// CacheHandle wraps the Badger cache with shutdown capability.
type CacheHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the ephemeral cache tier.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cache, err := store.New(cfg.Storage.CachePath, store.Options{Compress: cfg.Storage.CompressCache}, log.Component("cache"))
	if err != nil {
		return nil, err
	}
	return &CacheHandle{Store: cache}, nil
}

// DatabaseHandle wraps the SQLite store with shutdown capability.
type DatabaseHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *DatabaseHandle) Shutdown() error {
	return h.Close()
}

// ProvideDatabase provides the durable tier.
func ProvideDatabase(i do.Injector) (*DatabaseHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Storage.DatabasePath, log.Component("sqlite"))
	if err != nil {
		return nil, err
	}
	return &DatabaseHandle{Store: db}, nil
}

// ProvideGateway provides the two-tier storage gateway.
func ProvideGateway(i do.Injector) (*gateway.Gateway, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cache := do.MustInvoke[*CacheHandle](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	return gateway.New(cache.Store, db.Store, cfg.Storage.CacheTTL, log.Component("gateway")), nil
}
