package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const healthProbeTimeout = 2 * time.Second

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Probes both storage tiers and lists the providers enabled for search",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth is the probe result for one storage tier.
type ComponentHealth struct {
	Status  string `json:"status" doc:"healthy or unhealthy"`
	Latency string `json:"latency" doc:"Probe round trip"`
	Message string `json:"message,omitempty" doc:"Probe error, when unhealthy"`
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"healthy, degraded (no probes registered) or unhealthy"`
	Components map[string]ComponentHealth `json:"components"`
	Providers  []string                   `json:"providers" doc:"Providers enabled in the current settings"`
}

// HealthOutput is the huma response for /health.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		components = make(map[string]ComponentHealth, len(s.services.Health))
	)
	for name, checker := range s.services.Health {
		wg.Go(func() {
			h := probe(ctx, checker)
			mu.Lock()
			components[name] = h
			mu.Unlock()
		})
	}
	wg.Wait()

	status := "healthy"
	if len(components) == 0 {
		status = "degraded"
	}
	for _, h := range components {
		if h.Status != "healthy" {
			status = "unhealthy"
		}
	}

	var providers []string
	if s.services.Settings != nil {
		providers = s.services.Settings.Snapshot(ctx).EnabledSources()
	}
	if providers == nil {
		providers = []string{}
	}

	return &HealthOutput{Body: HealthResponse{
		Status:     status,
		Components: components,
		Providers:  providers,
	}}, nil
}

func probe(ctx context.Context, checker HealthChecker) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	start := time.Now()
	err := checker.Ping(ctx)
	h := ComponentHealth{Status: "healthy", Latency: time.Since(start).String()}
	if err != nil {
		h.Status = "unhealthy"
		h.Message = err.Error()
	}
	return h
}
