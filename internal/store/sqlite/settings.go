package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/store"
)

const settingsKey = "system"

// GetSettings retrieves the stored settings.
// Returns store.ErrNotFound if none have been saved.
func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value_json FROM settings WHERE key = ?`, settingsKey).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var st domain.Settings
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &st, nil
}

// SaveSettings replaces the stored settings and stamps UpdatedAt.
func (s *Store) SaveSettings(ctx context.Context, st *domain.Settings) error {
	st.UpdatedAt = time.Now()
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value_json = excluded.value_json,
			updated_at = excluded.updated_at`,
		settingsKey, string(data), formatTime(st.UpdatedAt))
	return err
}
