// Command api runs the metadata aggregator HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-metadata/internal/di"
	"github.com/listenupapp/listenup-metadata/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "metadata: bootstrap: %v\n", err)
		os.Exit(1)
	}
	log := do.MustInvoke[*logger.Logger](injector)
	started := time.Now()

	<-ctx.Done()
	stop()
	log.Info("Signal received, shutting down", "uptime", time.Since(started).Round(time.Second))

	// Reverse dependency order: HTTP server, import queue, then both stores.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown finished with errors", "error", err)
		os.Exit(1)
	}
	log.Info("Shutdown complete")
}
