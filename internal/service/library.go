// Package service holds the request-level operations of the aggregator:
// search, details, imports, lists and administration.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
	"github.com/listenupapp/listenup-metadata/internal/gateway"
	"github.com/listenupapp/listenup-metadata/internal/store"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
)

// MaxPageSize caps one library page.
const MaxPageSize = 200

// LibraryService browses and prunes the durable library.
type LibraryService struct {
	store   *sqlite.Store
	gateway *gateway.Gateway
	logger  *slog.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(store *sqlite.Store, gw *gateway.Gateway, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		store:   store,
		gateway: gw,
		logger:  logger,
	}
}

// LibraryPage returns one filtered page of library entries.
func (s *LibraryService) LibraryPage(ctx context.Context, f domain.LibraryFilter) (*domain.LibraryPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Year != "" && (len(f.Year) != 4 || strings.Trim(f.Year, "0123456789") != "") {
		return nil, domainerrors.Validationf("year must be four digits, got %q", f.Year)
	}
	if f.MinRating < 0 || f.MinRating > 5 {
		return nil, domainerrors.Validation("min_rating must be between 0 and 5")
	}
	f.Limit = min(f.Limit, MaxPageSize)

	page, err := s.store.ListBooks(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return page, nil
}

// DeleteBook removes a book from both storage tiers.
func (s *LibraryService) DeleteBook(ctx context.Context, id string) error {
	err := s.gateway.DeleteBook(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("book %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	s.logger.Info("book deleted", "id", id)
	return nil
}
