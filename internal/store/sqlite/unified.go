package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"
	"strings"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/store"
)

// FindEntities resolves relation pairs to the entity each belongs to.
// Pairs without an entity are absent from the result.
func (s *Store) FindEntities(ctx context.Context, rels []domain.Relation) (map[domain.Relation]string, error) {
	out := make(map[domain.Relation]string, len(rels))
	if len(rels) == 0 {
		return out, nil
	}

	// One (provider = ? AND provider_id = ?) term per pair.
	terms := make([]string, len(rels))
	args := make([]any, 0, len(rels)*2)
	for i, r := range rels {
		terms[i] = "(provider = ? AND provider_id = ?)"
		args = append(args, r.Provider, r.ProviderID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, provider, provider_id FROM unified_relations WHERE `+strings.Join(terms, " OR "),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entityID string
		var r domain.Relation
		if err := rows.Scan(&entityID, &r.Provider, &r.ProviderID); err != nil {
			return nil, err
		}
		out[r] = entityID
	}
	return out, rows.Err()
}

// CreateEntity inserts e and its relations in one transaction. Relations
// already owned by another entity are skipped.
func (s *Store) CreateEntity(ctx context.Context, e *domain.UnifiedEntity) error {
	authors, err := json.Marshal(e.Authors)
	if err != nil {
		return fmt.Errorf("encode authors: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO unified_entities (id, title, authors_json, created_at) VALUES (?, ?, ?, ?)`,
			e.ID, e.Title, string(authors), formatTime(e.CreatedAt))
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if err != nil {
			return err
		}
		return insertRelations(ctx, tx, e.ID, e.Relations)
	})
}

// AddRelations appends relations to an existing entity. Pairs already
// recorded anywhere are left alone.
func (s *Store) AddRelations(ctx context.Context, entityID string, rels []domain.Relation) error {
	if len(rels) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertRelations(ctx, tx, entityID, rels)
	})
}

func insertRelations(ctx context.Context, tx *sql.Tx, entityID string, rels []domain.Relation) error {
	now := formatTime(time.Now())
	for _, r := range rels {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO unified_relations (entity_id, provider, provider_id, created_at)
			VALUES (?, ?, ?, ?)`,
			entityID, r.Provider, r.ProviderID, now)
		if err != nil {
			return fmt.Errorf("insert relation %s/%s: %w", r.Provider, r.ProviderID, err)
		}
	}
	return nil
}

// GetEntity retrieves an entity with its relations in insertion order.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetEntity(ctx context.Context, id string) (*domain.UnifiedEntity, error) {
	var (
		e         domain.UnifiedEntity
		authors   string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, authors_json, created_at FROM unified_entities WHERE id = ?`, id).
		Scan(&e.ID, &e.Title, &authors, &createdAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(authors), &e.Authors); err != nil {
		return nil, fmt.Errorf("decode authors: %w", err)
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, provider_id FROM unified_relations WHERE entity_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	e.Relations = make([]domain.Relation, 0)
	for rows.Next() {
		var r domain.Relation
		if err := rows.Scan(&r.Provider, &r.ProviderID); err != nil {
			return nil, err
		}
		e.Relations = append(e.Relations, r)
	}
	return &e, rows.Err()
}

// CountEntities returns the number of unified entities.
func (s *Store) CountEntities(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM unified_entities`).Scan(&n)
	return n, err
}
