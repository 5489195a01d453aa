package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/id"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
)

// ActivityService records and reads the activity log.
type ActivityService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewActivityService creates a new activity service.
func NewActivityService(store *sqlite.Store, logger *slog.Logger) *ActivityService {
	return &ActivityService{
		store:  store,
		logger: logger,
	}
}

// Record appends an activity. Failures are logged, never returned: the
// log must not fail the request it describes.
func (s *ActivityService) Record(ctx context.Context, action domain.ActivityAction, target, details string, caller domain.Caller, took time.Duration) {
	activityID, err := id.Generate(id.Activity)
	if err != nil {
		s.logger.Error("failed to generate activity ID", "error", err)
		return
	}

	a := &domain.Activity{
		ID:          activityID,
		Action:      action,
		Target:      target,
		Details:     details,
		DeviceToken: caller.DeviceToken,
		Country:     caller.Country,
		DurationMs:  took.Milliseconds(),
		CreatedAt:   time.Now(),
	}

	// The request may already be cancelled; the record still lands.
	if err := s.store.CreateActivity(context.WithoutCancel(ctx), a); err != nil {
		s.logger.Warn("failed to record activity",
			"action", action,
			"target", target,
			"error", err,
		)
		return
	}

	s.logger.Debug("activity recorded",
		"action", action,
		"target", target,
		"duration_ms", a.DurationMs,
	)
}

// Recent returns the newest activities, up to limit.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = sqlite.DefaultActivityLimit
	}
	return s.store.ListActivities(ctx, limit)
}

// TrafficStats summarizes callers over the recent activity window.
type TrafficStats struct {
	Activities int            `json:"activities"`
	Devices    int            `json:"devices"`
	Countries  map[string]int `json:"countries"`
	Actions    map[string]int `json:"actions"`
}

// Traffic aggregates the newest limit activities by device, country and action.
func (s *ActivityService) Traffic(ctx context.Context, limit int) (*TrafficStats, error) {
	activities, err := s.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	stats := &TrafficStats{
		Activities: len(activities),
		Countries:  make(map[string]int),
		Actions:    make(map[string]int),
	}
	devices := make(map[string]struct{})
	for _, a := range activities {
		devices[a.DeviceToken] = struct{}{}
		stats.Countries[a.Country]++
		stats.Actions[string(a.Action)]++
	}
	stats.Devices = len(devices)
	return stats, nil
}
