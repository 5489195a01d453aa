// Package providers contains dependency injection providers for the metadata aggregator.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting ListenUp metadata aggregator",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"cache_path", cfg.Storage.CachePath,
		"db_path", cfg.Storage.DatabasePath,
	)

	return log, nil
}

// ProvideEnvConfig provides configuration from the environment and .env
// only, for tools that parse their own flags.
func ProvideEnvConfig(i do.Injector) (*config.Config, error) {
	return config.Load(nil)
}
