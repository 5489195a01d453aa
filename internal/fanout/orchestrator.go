// Package fanout runs one search across many provider adapters at once.
package fanout

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
)

const (
	// DefaultTimeout bounds each provider call.
	DefaultTimeout = 10 * time.Second
	// DefaultBlockingPool is the number of blocking adapter calls allowed at once.
	DefaultBlockingPool = 4
)

// Options configures an Orchestrator.
type Options struct {
	Timeout      time.Duration
	BlockingPool int
}

// Orchestrator fans a search out to adapters and joins the results.
type Orchestrator struct {
	bench    *Benchmarker
	blocking *semaphore.Weighted
	logger   *slog.Logger
}

// New creates an orchestrator.
func New(opts Options, sink StatsSink, logger *slog.Logger) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BlockingPool <= 0 {
		opts.BlockingPool = DefaultBlockingPool
	}
	return &Orchestrator{
		bench:    &Benchmarker{Timeout: opts.Timeout, Sink: sink, Logger: logger},
		blocking: semaphore.NewWeighted(int64(opts.BlockingPool)),
		logger:   logger,
	}
}

// Run searches every adapter concurrently and waits for all of them.
// Results come back in adapter order regardless of completion order.
func (o *Orchestrator) Run(ctx context.Context, requestID string, crit metadata.Criteria, adapters []metadata.Adapter) []TaskResult {
	results := make([]TaskResult, len(adapters))

	var wg sync.WaitGroup
	for i, a := range adapters {
		call := func(ctx context.Context) (metadata.Result, error) {
			return a.Search(ctx, crit)
		}
		if metadata.IsBlocking(a) {
			call = o.offload(call)
		}
		wg.Go(func() {
			results[i] = o.bench.Run(ctx, requestID, a.Name(), call)
		})
	}
	wg.Wait()

	o.logger.Debug("fan-out complete",
		"request_id", requestID,
		"providers", len(adapters),
	)
	return results
}

// offload runs call under the blocking pool. Time spent waiting for a slot
// counts against the call's timeout. The slot is released when call returns
// or its context ends, whichever is first, so a call that ignores its
// deadline cannot hold a slot past it.
func (o *Orchestrator) offload(call Call) Call {
	return func(ctx context.Context) (metadata.Result, error) {
		if err := o.blocking.Acquire(ctx, 1); err != nil {
			return metadata.Result{}, err
		}
		var once sync.Once
		release := func() { once.Do(func() { o.blocking.Release(1) }) }
		stop := context.AfterFunc(ctx, release)
		defer func() {
			stop()
			release()
		}()
		return call(ctx)
	}
}

// Registry maps adapter names to adapters.
type Registry struct {
	adapters map[string]metadata.Adapter
}

// NewRegistry registers adapters under their Name, each behind
// metadata.Safe so a panicking adapter fails only its own call.
func NewRegistry(adapters ...metadata.Adapter) *Registry {
	r := &Registry{adapters: make(map[string]metadata.Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = metadata.NewSafe(a)
	}
	return r
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (metadata.Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Select returns the adapters for one request in the fixed provider order.
// An explicit override wins over the settings flags.
func (r *Registry) Select(override []string, settings *domain.Settings) []metadata.Adapter {
	names := override
	if len(names) == 0 {
		if settings == nil {
			settings = domain.NewSettings()
		}
		names = settings.EnabledSources()
	}

	var out []metadata.Adapter
	for _, name := range names {
		if a, ok := r.adapters[name]; ok {
			out = append(out, a)
		}
	}
	return out
}

// ParseProviders parses a comma-separated provider list. Names are
// case-insensitive; unknown names are dropped and the result follows the
// fixed provider order.
func ParseProviders(raw string) []string {
	want := make(map[string]bool)
	for part := range strings.SplitSeq(raw, ",") {
		if name := strings.ToLower(strings.TrimSpace(part)); name != "" {
			want[name] = true
		}
	}
	var out []string
	for _, name := range domain.DefaultSourceOrder {
		if want[name] {
			out = append(out, name)
		}
	}
	return out
}

// Merge flattens results in order, drops books rated below minRating when it
// is set and keeps the first occurrence of each provider id.
func Merge(results []TaskResult, minRating *float64) []domain.Book {
	seen := make(map[string]bool)
	out := make([]domain.Book, 0)
	for _, r := range results {
		for _, b := range r.Items {
			if minRating != nil && (b.Rating == nil || *b.Rating < *minRating) {
				continue
			}
			if seen[b.ProviderID] {
				continue
			}
			seen[b.ProviderID] = true
			out = append(out, b)
		}
	}
	return out
}
