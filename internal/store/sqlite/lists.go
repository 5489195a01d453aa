package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/store"
)

// SaveImportedList stores an imported list keyed by its source URL. A
// re-import keeps the list id and created_at and replaces name and items.
// list.ID is used only for the first import; the stored list is returned.
func (s *Store) SaveImportedList(ctx context.Context, list *domain.List) (*domain.List, error) {
	now := time.Now()

	var id string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO lists (id, name, kind, source_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(source_url) WHERE kind = 'imported' DO UPDATE SET
				name       = excluded.name,
				updated_at = excluded.updated_at
			RETURNING id`,
			list.ID, list.Name, string(domain.ListImported), list.SourceURL,
			formatTime(now), formatTime(now)).Scan(&id)
		if err != nil {
			return err
		}
		return replaceItems(ctx, tx, id, list.Items)
	})
	if err != nil {
		return nil, err
	}
	return s.GetList(ctx, id)
}

// CreateList inserts a new list with its items.
// Returns store.ErrAlreadyExists if the id is taken.
func (s *Store) CreateList(ctx context.Context, list *domain.List) error {
	now := time.Now()
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now
	}
	list.UpdatedAt = now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lists (id, name, kind, source_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			list.ID, list.Name, string(list.Kind), nullString(list.SourceURL),
			formatTime(list.CreatedAt), formatTime(list.UpdatedAt))
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if err != nil {
			return err
		}
		return replaceItems(ctx, tx, list.ID, list.Items)
	})
}

func replaceItems(ctx context.Context, tx *sql.Tx, listID string, items []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_id = ?`, listID); err != nil {
		return err
	}
	for i, id := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO list_items (list_id, position, provider_id) VALUES (?, ?, ?)`,
			listID, i, id)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetList retrieves a list with its items in order.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetList(ctx context.Context, id string) (*domain.List, error) {
	var (
		l         domain.List
		kind      string
		sourceURL sql.NullString
		createdAt string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, kind, source_url, created_at, updated_at FROM lists WHERE id = ?`, id).
		Scan(&l.ID, &l.Name, &kind, &sourceURL, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	l.Kind = domain.ListKind(kind)
	l.SourceURL = sourceURL.String
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT provider_id FROM list_items WHERE list_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	l.Items = make([]string, 0)
	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		l.Items = append(l.Items, pid)
	}
	return &l, rows.Err()
}

// ListLists returns list summaries, most recently updated first.
func (s *Store) ListLists(ctx context.Context) ([]domain.ListSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.name, l.kind, l.source_url, l.updated_at,
			(SELECT COUNT(*) FROM list_items i WHERE i.list_id = l.id)
		FROM lists l
		ORDER BY l.updated_at DESC, l.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ListSummary, 0)
	for rows.Next() {
		var (
			ls        domain.ListSummary
			kind      string
			sourceURL sql.NullString
			updatedAt string
		)
		if err := rows.Scan(&ls.ID, &ls.Name, &kind, &sourceURL, &updatedAt, &ls.ItemCount); err != nil {
			return nil, err
		}
		ls.Kind = domain.ListKind(kind)
		ls.SourceURL = sourceURL.String
		if ls.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, ls)
	}
	return out, rows.Err()
}

// DeleteList removes a list and its items. Returns store.ErrNotFound if absent.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
