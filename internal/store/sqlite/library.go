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

// DefaultPageSize is used when a LibraryFilter has no limit.
const DefaultPageSize = 50

// libraryColumns is the ordered list of columns selected in library queries.
// Must match the scan order in scanEntry.
const libraryColumns = `book_json, added_at, updated_at, access_count, last_accessed`

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*domain.LibraryEntry, error) {
	var (
		e            domain.LibraryEntry
		bookJSON     string
		addedAt      string
		updatedAt    string
		lastAccessed sql.NullString
	)

	if err := scanner.Scan(&bookJSON, &addedAt, &updatedAt, &e.AccessCount, &lastAccessed); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(bookJSON), &e.Book); err != nil {
		return nil, fmt.Errorf("decode book: %w", err)
	}

	var err error
	if e.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if e.LastAccessed, err = parseNullableTime(lastAccessed); err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertBook writes book's content fields. A first insert sets added_at and
// an access_count of 1; later writes only bump updated_at and leave
// added_at, access_count and last_accessed untouched. Returns the stored entry.
func (s *Store) UpsertBook(ctx context.Context, book *domain.Book) (*domain.LibraryEntry, error) {
	stored := *book
	stored.CustomMetadata = nil // lives in custom_fields
	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("encode book: %w", err)
	}

	now := formatTime(time.Now())
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO library_entries (
			provider_id, provider, title, language, published_date, rating,
			book_json, added_at, updated_at, access_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(provider_id) DO UPDATE SET
			provider       = excluded.provider,
			title          = excluded.title,
			language       = excluded.language,
			published_date = excluded.published_date,
			rating         = excluded.rating,
			book_json      = excluded.book_json,
			updated_at     = excluded.updated_at
		RETURNING `+libraryColumns,
		book.ProviderID,
		book.Provider,
		book.Title,
		book.Language,
		nullString(book.PublishedDate),
		nullFloat(book.Rating),
		string(data),
		now,
		now,
	)
	return scanEntry(row)
}

// GetBook retrieves a library entry by provider id.
// Returns store.ErrNotFound if it does not exist.
func (s *Store) GetBook(ctx context.Context, providerID string) (*domain.LibraryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+libraryColumns+` FROM library_entries WHERE provider_id = ?`, providerID)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// TouchBook records one access: access_count+1 and last_accessed=now.
// Returns the updated entry or store.ErrNotFound.
func (s *Store) TouchBook(ctx context.Context, providerID string) (*domain.LibraryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE library_entries
		SET access_count = access_count + 1, last_accessed = ?
		WHERE provider_id = ?
		RETURNING `+libraryColumns,
		formatTime(time.Now()), providerID)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteBook removes a library entry. Returns store.ErrNotFound if absent.
func (s *Store) DeleteBook(ctx context.Context, providerID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM library_entries WHERE provider_id = ?`, providerID)
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

// ListBooks returns one page of library entries matching f, most recently
// updated first.
func (s *Store) ListBooks(ctx context.Context, f domain.LibraryFilter) (*domain.LibraryPage, error) {
	var (
		where []string
		args  []any
	)
	if f.MinRating > 0 {
		where = append(where, "rating >= ?")
		args = append(args, f.MinRating)
	}
	if f.Provider != "" {
		where = append(where, "provider = ? COLLATE NOCASE")
		args = append(args, f.Provider)
	}
	if f.Language != "" {
		where = append(where, "language = ?")
		args = append(args, strings.ToLower(f.Language))
	}
	if f.Year != "" {
		where = append(where, "substr(published_date, 1, 4) = ?")
		args = append(args, f.Year)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	offset := max(f.Offset, 0)

	page := &domain.LibraryPage{
		Entries: make([]domain.LibraryEntry, 0),
		Offset:  offset,
		Limit:   limit,
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM library_entries`+clause, args...).Scan(&page.Total); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+libraryColumns+` FROM library_entries`+clause+
			` ORDER BY updated_at DESC, provider_id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		page.Entries = append(page.Entries, *e)
	}
	return page, rows.Err()
}
