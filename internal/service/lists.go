package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
	"github.com/listenupapp/listenup-metadata/internal/id"
	"github.com/listenupapp/listenup-metadata/internal/importer"
	"github.com/listenupapp/listenup-metadata/internal/store"
	"github.com/listenupapp/listenup-metadata/internal/store/sqlite"
	"github.com/listenupapp/listenup-metadata/internal/validation"
)

// CreateListRequest describes a hand-built list.
type CreateListRequest struct {
	Name string   `json:"name" validate:"required,max=200"`
	IDs  []string `json:"ids" validate:"required,min=1,max=500,dive,max=64"`
}

// CustomFieldsRequest holds fields to merge into a book's custom metadata.
type CustomFieldsRequest struct {
	ID     string         `json:"id" validate:"required,max=64"`
	Fields map[string]any `json:"fields" validate:"required,min=1"`
}

// ListService manages stored lists and per-book custom fields.
type ListService struct {
	store     *sqlite.Store
	importer  *importer.Importer
	activity  *ActivityService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewListService creates a new list service.
func NewListService(store *sqlite.Store, imp *importer.Importer, activity *ActivityService, logger *slog.Logger) *ListService {
	return &ListService{
		store:     store,
		importer:  imp,
		activity:  activity,
		validator: validation.New(),
		logger:    logger,
	}
}

// CreateCustomList stores a custom list of the requested ids and resolves
// them into the library.
func (s *ListService) CreateCustomList(ctx context.Context, req *CreateListRequest, caller domain.Caller) (*importer.CustomListResult, error) {
	start := time.Now()
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	result, err := s.importer.CreateCustomList(ctx, req.Name, req.IDs)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, domain.ActivityCreateList, result.Name,
		fmt.Sprintf("Items: %d/%d", result.Resolved, result.Requested),
		caller, time.Since(start))

	s.logger.Info("custom list created",
		"list_id", result.ListID,
		"requested", result.Requested,
		"resolved", result.Resolved,
	)
	return result, nil
}

// GetList returns a list with its items.
func (s *ListService) GetList(ctx context.Context, listID string) (*domain.List, error) {
	if !id.IsList(listID) {
		return nil, domainerrors.NotFoundf("list %s not found", listID)
	}
	list, err := s.store.GetList(ctx, listID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("list %s not found", listID)
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return list, nil
}

// ListLists returns every list without items, most recently updated first.
func (s *ListService) ListLists(ctx context.Context) ([]domain.ListSummary, error) {
	return s.store.ListLists(ctx)
}

// DeleteList removes a list. Books it referenced stay in the library.
func (s *ListService) DeleteList(ctx context.Context, listID string) error {
	if !id.IsList(listID) {
		return domainerrors.NotFoundf("list %s not found", listID)
	}
	err := s.store.DeleteList(ctx, listID)
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("list %s not found", listID)
	}
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	s.logger.Info("list deleted", "list_id", listID)
	return nil
}

// RecordCustomFields merges fields into the custom metadata of a book and
// returns the merged map. The book does not have to be in the library yet.
func (s *ListService) RecordCustomFields(ctx context.Context, req *CustomFieldsRequest, caller domain.Caller) (map[string]any, error) {
	start := time.Now()
	req.ID = strings.TrimSpace(req.ID)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	merged, err := s.store.MergeCustomFields(ctx, req.ID, req.Fields)
	if err != nil {
		return nil, fmt.Errorf("merge custom fields: %w", err)
	}

	s.activity.Record(ctx, domain.ActivityCustomFields, req.ID,
		fmt.Sprintf("%d fields", len(req.Fields)), caller, time.Since(start))
	return merged, nil
}
