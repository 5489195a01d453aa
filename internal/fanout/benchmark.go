package fanout

import (
	"context"
	"log/slog"
	"time"

	"github.com/listenupapp/listenup-metadata/internal/domain"
	"github.com/listenupapp/listenup-metadata/internal/metadata"
)

// StatsSink receives one stat per benchmarked call.
type StatsSink interface {
	RecordProviderStat(ctx context.Context, stat domain.ProviderStat) error
}

// TaskResult is the outcome of one benchmarked provider call.
type TaskResult struct {
	Provider string
	Items    []domain.Book
	Count    int
	Status   domain.StatStatus
	Duration time.Duration
	Err      error
}

// Call is a unit of provider work.
type Call func(ctx context.Context) (metadata.Result, error)

// Benchmarker times provider calls, bounds them with a timeout and
// reports each outcome to a StatsSink.
type Benchmarker struct {
	Timeout time.Duration
	Sink    StatsSink
	Logger  *slog.Logger
}

// Run executes call and records its stat under requestID and provider.
// A call that errors or outlives Timeout yields status error and no items.
// Run returns by the deadline even if call ignores its context.
func (b *Benchmarker) Run(ctx context.Context, requestID, provider string, call Call) TaskResult {
	start := time.Now()

	callCtx := ctx
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	type outcome struct {
		res metadata.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := call(callCtx)
		done <- outcome{res, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-callCtx.Done():
		out = outcome{err: callCtx.Err()}
	}

	result := TaskResult{
		Provider: provider,
		Status:   domain.StatSuccess,
		Duration: time.Since(start),
	}
	if out.err != nil {
		result.Status = domain.StatError
		result.Err = out.err
		if b.Logger != nil {
			b.Logger.Warn("provider call failed",
				"provider", provider,
				"request_id", requestID,
				"duration_ms", result.Duration.Milliseconds(),
				"error", out.err,
			)
		}
	} else {
		result.Items = out.res.Items
		result.Count = out.res.Count()
	}

	b.record(ctx, requestID, result, start)
	return result
}

func (b *Benchmarker) record(ctx context.Context, requestID string, r TaskResult, start time.Time) {
	if b.Sink == nil {
		return
	}
	stat := domain.ProviderStat{
		RequestID:   requestID,
		Provider:    r.Provider,
		Timestamp:   start.UTC(),
		DurationMs:  r.Duration.Milliseconds(),
		ResultCount: r.Count,
		Status:      r.Status,
	}
	// The caller's deadline may already be spent; the stat still lands.
	if err := b.Sink.RecordProviderStat(context.WithoutCancel(ctx), stat); err != nil && b.Logger != nil {
		b.Logger.Warn("failed to record provider stat",
			"provider", r.Provider,
			"request_id", requestID,
			"error", err,
		)
	}
}
