package sqlite

import (
	"context"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
)

// RecordProviderStat appends one provider call record.
func (s *Store) RecordProviderStat(ctx context.Context, st domain.ProviderStat) error {
	if st.Timestamp.IsZero() {
		st.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO provider_stats (request_id, provider, timestamp, duration_ms, result_count, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		st.RequestID, st.Provider, formatTime(st.Timestamp), st.DurationMs, st.ResultCount, string(st.Status))
	return err
}

// ProviderStatsSummary aggregates stats per provider for calls at or after
// since. A zero since covers the whole history.
func (s *Store) ProviderStatsSummary(ctx context.Context, since time.Time) ([]domain.ProviderSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider,
			COUNT(*),
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
			AVG(duration_ms),
			AVG(result_count)
		FROM provider_stats
		WHERE timestamp >= ?
		GROUP BY provider
		ORDER BY provider`,
		string(domain.StatError), formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ProviderSummary, 0)
	for rows.Next() {
		var ps domain.ProviderSummary
		if err := rows.Scan(&ps.Provider, &ps.Calls, &ps.Errors, &ps.AvgDurationMs, &ps.AvgResults); err != nil {
			return nil, err
		}
		if ps.Calls > 0 {
			ps.ErrorRate = float64(ps.Errors) / float64(ps.Calls)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}
