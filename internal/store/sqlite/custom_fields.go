package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"
	"maps"
	"time"
)

// GetCustomFields returns the custom fields attached to a provider id.
// A book with no fields yields an empty map.
func (s *Store) GetCustomFields(ctx context.Context, providerID string) (map[string]any, error) {
	return getCustomFields(ctx, s.db, providerID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getCustomFields(ctx context.Context, q queryRower, providerID string) (map[string]any, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT fields_json FROM custom_fields WHERE provider_id = ?`, providerID).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode custom fields: %w", err)
	}
	return fields, nil
}

// MergeCustomFields overlays fields onto the stored set for providerID and
// returns the result. Keys not named in fields are kept.
func (s *Store) MergeCustomFields(ctx context.Context, providerID string, fields map[string]any) (map[string]any, error) {
	var merged map[string]any
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getCustomFields(ctx, tx, providerID)
		if err != nil {
			return err
		}
		maps.Copy(current, fields)

		data, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("encode custom fields: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO custom_fields (provider_id, fields_json, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(provider_id) DO UPDATE SET
				fields_json = excluded.fields_json,
				updated_at  = excluded.updated_at`,
			providerID, string(data), formatTime(time.Now()))
		merged = current
		return err
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}
