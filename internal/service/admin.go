package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
	"github.com/listenupapp/listenup-metadata/internal/gateway"
	"github.com/listenupapp/listenup-metadata/internal/store"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
)

// DefaultStatsWindow is the provider stats lookback when none is given.
const DefaultStatsWindow = 24 * time.Hour

// AdminService exposes cache and activity maintenance.
type AdminService struct {
	gateway  *gateway.Gateway
	store    *sqlite.Store
	activity *ActivityService
	logger   *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(gw *gateway.Gateway, store *sqlite.Store, activity *ActivityService, logger *slog.Logger) *AdminService {
	return &AdminService{
		gateway:  gw,
		store:    store,
		activity: activity,
		logger:   logger,
	}
}

// InspectCache lists live cache keys under prefix.
func (s *AdminService) InspectCache(ctx context.Context, prefix string, limit int) ([]store.KeyInfo, error) {
	keys, err := s.gateway.InspectCache(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("inspect cache: %w", err)
	}
	return keys, nil
}

// DeleteCacheKey removes one cache entry.
func (s *AdminService) DeleteCacheKey(ctx context.Context, key string, caller domain.Caller) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return domainerrors.Validation("key is required")
	}
	if err := s.gateway.DeleteCacheKey(ctx, key); err != nil {
		return fmt.Errorf("delete cache key: %w", err)
	}

	s.logger.Info("cache key deleted", "key", key)
	s.activity.Record(ctx, domain.ActivityAdmin, key, "cache delete", caller, 0)
	return nil
}

// FlushCache drops the whole ephemeral tier.
func (s *AdminService) FlushCache(ctx context.Context, caller domain.Caller) error {
	if err := s.gateway.FlushCache(ctx); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}

	s.logger.Warn("cache flushed")
	s.activity.Record(ctx, domain.ActivityAdmin, "cache", "flush", caller, 0)
	return nil
}

// ProviderStats summarizes provider calls made within window.
func (s *AdminService) ProviderStats(ctx context.Context, window time.Duration) ([]domain.ProviderSummary, error) {
	if window <= 0 {
		window = DefaultStatsWindow
	}
	summary, err := s.store.ProviderStatsSummary(ctx, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("provider stats: %w", err)
	}
	return summary, nil
}

// RecentActivity returns the newest activities.
func (s *AdminService) RecentActivity(ctx context.Context, limit int) ([]domain.Activity, error) {
	activities, err := s.activity.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return activities, nil
}

// Traffic summarizes the newest activities by device, country and action.
func (s *AdminService) Traffic(ctx context.Context, limit int) (*TrafficStats, error) {
	stats, err := s.activity.Traffic(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("traffic stats: %w", err)
	}
	return stats, nil
}
