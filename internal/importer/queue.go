package importer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	domainerrors "github.com/listenupapp/listenup-metadata/internal/errors"
)

// Defaults for NewQueue.
const (
	DefaultQueueSize = 32
	DefaultWorkers   = 2
)

// Job is one queued import.
type Job struct {
	RequestID string
	URL       string
	Caller    domain.Caller
}

// Ticket acknowledges a queued job.
type Ticket struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
}

// Handler runs a job. It owns error reporting; the queue only logs.
type Handler func(ctx context.Context, job Job) error

// Queue runs imports in the background on a fixed set of workers.
type Queue struct {
	handler Handler
	logger  *slog.Logger
	jobs    chan Job

	ctx    context.Context //nolint:containedctx // worker lifetime
	cancel context.CancelFunc
	wg     sync.WaitGroup

	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewQueue starts workers that feed jobs to handler.
func NewQueue(size, workers int, handler Handler, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		handler: handler,
		logger:  logger,
		jobs:    make(chan Job, size),
		ctx:     ctx,
		cancel:  cancel,
	}
	for range workers {
		q.wg.Go(q.worker)
	}
	return q
}

// Submit enqueues an import and returns immediately.
// Returns an Unavailable error when the queue is full or shutting down.
func (q *Queue) Submit(rawURL string, caller domain.Caller) (Ticket, error) {
	job := Job{RequestID: uuid.NewString(), URL: rawURL, Caller: caller}

	q.shutdownMu.RLock()
	defer q.shutdownMu.RUnlock()
	if q.shutdown {
		return Ticket{}, domainerrors.Unavailable("import queue is shutting down")
	}
	select {
	case q.jobs <- job:
	default:
		return Ticket{}, domainerrors.Unavailable("import queue is full")
	}

	q.logger.Debug("import queued", "request_id", job.RequestID, "url", rawURL)
	return Ticket{Status: "accepted", RequestID: job.RequestID}, nil
}

func (q *Queue) worker() {
	for job := range q.jobs {
		if err := q.handler(q.ctx, job); err != nil {
			q.logger.Warn("background import failed",
				"request_id", job.RequestID,
				"url", job.URL,
				"error", err,
			)
		}
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish. When
// ctx ends first, running jobs are cancelled and ctx's error is returned.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.shutdownMu.Lock()
	if q.shutdown {
		q.shutdownMu.Unlock()
		return nil
	}
	q.shutdown = true
	close(q.jobs)
	q.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}
