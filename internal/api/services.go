package api

import (
	"context"

	"github.com/listenupapp/listenup-metadata/internal/analytics"
	"github.com/listenupapp/listenup-metadata/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Search   *service.SearchService
	Details  *service.DetailsService
	Import   *service.ImportService
	Lists    *service.ListService
	Library  *service.LibraryService
	Admin    *service.AdminService
	Settings *service.SettingsService
	Callers  *analytics.Attributor // Device and country attribution; nil attributes to Unknown

	// Health maps component names to liveness probes.
	Health map[string]HealthChecker
}

// HealthChecker is a component that can report liveness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
