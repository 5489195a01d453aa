package sqlite

import (
	"context"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
)

// DefaultActivityLimit caps ListActivities when no limit is given.
const DefaultActivityLimit = 100

// CreateActivity appends an entry to the activity log.
func (s *Store) CreateActivity(ctx context.Context, a *domain.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, action, target, details, device_token, country, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Action), a.Target, nullString(a.Details),
		a.DeviceToken, a.Country, a.DurationMs, formatTime(a.CreatedAt))
	return err
}

// ListActivities returns the newest activity entries first.
func (s *Store) ListActivities(ctx context.Context, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, target, COALESCE(details, ''), device_token, country, duration_ms, created_at
		FROM activities
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Activity, 0)
	for rows.Next() {
		var (
			a         domain.Activity
			action    string
			createdAt string
		)
		if err := rows.Scan(&a.ID, &action, &a.Target, &a.Details, &a.DeviceToken, &a.Country, &a.DurationMs, &createdAt); err != nil {
			return nil, err
		}
		a.Action = domain.ActivityAction(action)
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
