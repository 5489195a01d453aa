package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-metadata/internal/analytics"
	"github.com/listenupapp/listenup-metadata/internal/api"
	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/logger"
	"github.com/listenupapp/listenup-metadata/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cache := do.MustInvoke[*CacheHandle](i)
	db := do.MustInvoke[*DatabaseHandle](i)

	services := &api.Services{
		Search:   do.MustInvoke[*service.SearchService](i),
		Details:  do.MustInvoke[*service.DetailsService](i),
		Import:   do.MustInvoke[*ImportServiceHandle](i).ImportService,
		Lists:    do.MustInvoke[*service.ListService](i),
		Library:  do.MustInvoke[*service.LibraryService](i),
		Admin:    do.MustInvoke[*service.AdminService](i),
		Settings: do.MustInvoke[*service.SettingsService](i),
		Callers:  do.MustInvoke[*analytics.Attributor](i),
		Health: map[string]api.HealthChecker{
			"cache":    cache.Store,
			"database": db.Store,
		},
	}

	handler := api.NewServer(services, cfg.Server, log.Component("api"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
