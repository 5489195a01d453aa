package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/service"
	"github.com/listenupapp/listenup-metadata/internal/store"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "inspectCache",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/cache",
		Summary:     "Inspect cache",
		Description: "Lists live cache keys under a prefix with their size and expiry",
		Tags:        []string{"Admin"},
	}, s.handleInspectCache)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteCacheKey",
		Method:        http.MethodDelete,
		Path:          "/api/v1/admin/cache/{key}",
		Summary:       "Delete cache key",
		Tags:          []string{"Admin"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteCacheKey)

	huma.Register(s.api, huma.Operation{
		OperationID:   "flushCache",
		Method:        http.MethodPost,
		Path:          "/api/v1/admin/cache/flush",
		Summary:       "Flush cache",
		Description:   "Drops every cache entry. The library database is untouched.",
		Tags:          []string{"Admin"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleFlushCache)

	huma.Register(s.api, huma.Operation{
		OperationID: "providerStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/stats/providers",
		Summary:     "Provider statistics",
		Description: "Per-provider call count, average duration and error rate over a trailing window",
		Tags:        []string{"Admin"},
	}, s.handleProviderStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "trafficStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/stats/traffic",
		Summary:     "Traffic statistics",
		Description: "Distinct devices, countries and actions across recent activity",
		Tags:        []string{"Admin"},
	}, s.handleTrafficStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "recentActivity",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/activity",
		Summary:     "Recent activity",
		Tags:        []string{"Admin"},
	}, s.handleRecentActivity)
}

// InspectCacheInput contains cache inspection parameters.
type InspectCacheInput struct {
	Prefix string `query:"prefix" doc:"Key prefix, e.g. book: or search:"`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" doc:"Maximum keys to return"`
}

// CacheKeysResponse contains cache key descriptions.
type CacheKeysResponse struct {
	Keys []store.KeyInfo `json:"keys" doc:"Live keys in key order"`
}

// CacheKeysOutput wraps the cache keys for Huma.
type CacheKeysOutput struct {
	Body CacheKeysResponse
}

func (s *Server) handleInspectCache(ctx context.Context, input *InspectCacheInput) (*CacheKeysOutput, error) {
	keys, err := s.services.Admin.InspectCache(ctx, input.Prefix, input.Limit)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []store.KeyInfo{}
	}
	return &CacheKeysOutput{Body: CacheKeysResponse{Keys: keys}}, nil
}

// CacheKeyInput identifies one cache key.
type CacheKeyInput struct {
	Key string `path:"key" doc:"Full cache key"`
}

func (s *Server) handleDeleteCacheKey(ctx context.Context, input *CacheKeyInput) (*struct{}, error) {
	if err := s.services.Admin.DeleteCacheKey(ctx, input.Key, s.caller(ctx)); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleFlushCache(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.services.Admin.FlushCache(ctx, s.caller(ctx)); err != nil {
		return nil, err
	}
	return nil, nil
}

// ProviderStatsInput contains the stats window.
type ProviderStatsInput struct {
	Hours int `query:"hours" minimum:"0" maximum:"720" doc:"Trailing window in hours (0 uses 24)"`
}

// ProviderStatsResponse contains per-provider summaries.
type ProviderStatsResponse struct {
	Window    string                   `json:"window" doc:"Window the summaries cover"`
	Providers []domain.ProviderSummary `json:"providers" doc:"Summaries ordered by provider"`
}

// ProviderStatsOutput wraps the provider summaries for Huma.
type ProviderStatsOutput struct {
	Body ProviderStatsResponse
}

func (s *Server) handleProviderStats(ctx context.Context, input *ProviderStatsInput) (*ProviderStatsOutput, error) {
	window := time.Duration(input.Hours) * time.Hour
	if window <= 0 {
		window = service.DefaultStatsWindow
	}

	summaries, err := s.services.Admin.ProviderStats(ctx, window)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []domain.ProviderSummary{}
	}
	return &ProviderStatsOutput{Body: ProviderStatsResponse{Window: window.String(), Providers: summaries}}, nil
}

// ActivityInput limits how many activities are read.
type ActivityInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"1000" doc:"Maximum activities to read"`
}

// TrafficOutput contains traffic statistics.
type TrafficOutput struct {
	Body *service.TrafficStats
}

func (s *Server) handleTrafficStats(ctx context.Context, input *ActivityInput) (*TrafficOutput, error) {
	stats, err := s.services.Admin.Traffic(ctx, input.Limit)
	if err != nil {
		return nil, err
	}
	return &TrafficOutput{Body: stats}, nil
}

// ActivityResponse contains recent activities.
type ActivityResponse struct {
	Activities []domain.Activity `json:"activities" doc:"Activities, newest first"`
}

// ActivityOutput wraps the activity list for Huma.
type ActivityOutput struct {
	Body ActivityResponse
}

func (s *Server) handleRecentActivity(ctx context.Context, input *ActivityInput) (*ActivityOutput, error) {
	activities, err := s.services.Admin.RecentActivity(ctx, input.Limit)
	if err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []domain.Activity{}
	}
	return &ActivityOutput{Body: ActivityResponse{Activities: activities}}, nil
}
