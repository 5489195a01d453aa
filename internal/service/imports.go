package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/listenupapp/listenup-metadata/internal/config"
	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/importer"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
	"github.com/listenupapp/listenup-metadata/internal/validation"
)

// ImportRequest names the list page to import.
type ImportRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// ImportService runs list imports, inline or on the background queue.
type ImportService struct {
	importer  *importer.Importer
	queue     *importer.Queue
	settings  *SettingsService
	activity  *ActivityService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewImportService creates a new import service and starts its workers.
func NewImportService(
	imp *importer.Importer,
	settings *SettingsService,
	activity *ActivityService,
	cfg config.ImportConfig,
	logger *slog.Logger,
) *ImportService {
	s := &ImportService{
		importer:  imp,
		settings:  settings,
		activity:  activity,
		validator: validation.New(),
		logger:    logger,
	}
	s.queue = importer.NewQueue(cfg.QueueSize, cfg.Workers, s.runJob, logger)
	return s
}

// ImportList imports the list at rawURL and waits for the result.
func (s *ImportService) ImportList(ctx context.Context, rawURL string, caller domain.Caller) (*importer.ImportResult, error) {
	if err := s.check(rawURL); err != nil {
		return nil, err
	}
	return s.run(ctx, uuid.NewString(), rawURL, caller)
}

// ImportListAsync queues the import and returns at once. Bad URLs are
// rejected here; later outcomes only reach the activity log.
func (s *ImportService) ImportListAsync(rawURL string, caller domain.Caller) (importer.Ticket, error) {
	if err := s.check(rawURL); err != nil {
		return importer.Ticket{}, err
	}
	return s.queue.Submit(rawURL, caller)
}

// check rejects malformed URLs and unsupported hosts before any work starts.
func (s *ImportService) check(rawURL string) error {
	if err := s.validator.Validate(&ImportRequest{URL: rawURL}); err != nil {
		return err
	}
	return importer.Supported(rawURL)
}

// Shutdown stops the queue, waiting for queued imports until ctx ends.
func (s *ImportService) Shutdown(ctx context.Context) error {
	return s.queue.Shutdown(ctx)
}

func (s *ImportService) runJob(ctx context.Context, job importer.Job) error {
	_, err := s.run(ctx, job.RequestID, job.URL, job.Caller)
	return err
}

func (s *ImportService) run(ctx context.Context, requestID, rawURL string, caller domain.Caller) (*importer.ImportResult, error) {
	start := time.Now()
	snapshot := s.settings.Snapshot(ctx)
	ctx = metadata.WithKeys(ctx, snapshot.APIKeys)

	result, err := s.importer.Import(ctx, requestID, rawURL, snapshot.ScrapePageLimit)
	if err != nil {
		s.activity.Record(ctx, domain.ActivityImportError, rawURL, err.Error(), caller, time.Since(start))
		return nil, err
	}

	s.activity.Record(ctx, domain.ActivityImportList, result.Title,
		fmt.Sprintf("Items: %d/%d", result.Imported, result.Requested),
		caller, time.Since(start))
	return result, nil
}
