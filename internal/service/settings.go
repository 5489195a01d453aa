package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/store"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
	"github.com/listenupapp/listenup-metadata/internal/validation"
)

// SettingsService manages the runtime settings snapshot.
type SettingsService struct {
	store     *sqlite.Store
	defaults  config.DefaultsConfig
	validator *validation.Validator
	logger    *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store *sqlite.Store, defaults config.DefaultsConfig, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		store:     store,
		defaults:  defaults,
		validator: validation.New(),
		logger:    logger,
	}
}

// defaultSettings builds the settings used before anything is stored.
func (s *SettingsService) defaultSettings() *domain.Settings {
	st := domain.NewSettings()
	if s.defaults.SearchLimit > 0 {
		st.SearchLimit = s.defaults.SearchLimit
	}
	if s.defaults.ScrapePageLimit > 0 {
		st.ScrapePageLimit = s.defaults.ScrapePageLimit
	}
	st.APIKeys = domain.APIKeys{
		PRH:         s.defaults.PRHKey,
		Hardcover:   s.defaults.HardcoverKey,
		GoogleBooks: s.defaults.GoogleBooksKey,
	}
	return st
}

// Seed stores the defaults when no settings exist yet.
func (s *SettingsService) Seed(ctx context.Context) error {
	_, err := s.store.GetSettings(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get settings: %w", err)
	}
	if err := s.store.SaveSettings(ctx, s.defaultSettings()); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	s.logger.Info("seeded runtime settings")
	return nil
}

// Snapshot reads the current settings for one request. It never fails:
// a missing or unreadable row yields the defaults.
func (s *SettingsService) Snapshot(ctx context.Context) *domain.Settings {
	st, err := s.store.GetSettings(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to read settings, using defaults", "error", err)
		}
		return s.defaultSettings()
	}
	return st
}

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Snapshot(ctx), nil
}

// SettingsUpdate contains fields that can be updated. Nil fields are left alone.
type SettingsUpdate struct {
	Providers       map[string]bool `json:"providers,omitempty" validate:"omitempty,dive,keys,provider,endkeys"`
	SearchLimit     *int            `json:"search_limit,omitempty" validate:"omitempty,gte=1,lte=50"`
	ScrapePageLimit *int            `json:"scrape_page_limit,omitempty" validate:"omitempty,gte=1,lte=500"`
	APIKeys         *domain.APIKeys `json:"api_keys,omitempty"`
}

// Update applies update to the stored settings and returns the result.
func (s *SettingsService) Update(ctx context.Context, update *SettingsUpdate) (*domain.Settings, error) {
	if err := s.validator.Validate(update); err != nil {
		return nil, err
	}

	current := s.Snapshot(ctx)
	if current.Providers == nil {
		current.Providers = make(map[string]bool, len(update.Providers))
	}
	maps.Copy(current.Providers, update.Providers)
	if update.SearchLimit != nil {
		current.SearchLimit = *update.SearchLimit
	}
	if update.ScrapePageLimit != nil {
		current.ScrapePageLimit = *update.ScrapePageLimit
	}
	if update.APIKeys != nil {
		current.APIKeys = *update.APIKeys
	}

	if err := s.store.SaveSettings(ctx, current); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("settings updated",
		"providers", current.EnabledSources(),
		"search_limit", current.SearchLimit,
	)
	return current, nil
}
