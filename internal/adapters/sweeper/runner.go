// Package sweeper implements the retention loop that evicts old terminal
// jobs from the in-memory store.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/draftforge/draftforge/internal/core"
	"github.com/draftforge/draftforge/internal/observability/statsd"
)

const (
	// DefaultInterval is how often eviction runs.
	DefaultInterval = time.Hour
	// DefaultRetention is how long terminal jobs stay queryable after their
	// last update.
	DefaultRetention = 24 * time.Hour
)

// Options groups dependencies for the sweeper Runner.
type Options struct {
	Store     core.JobStore // Required: job set to sweep
	Interval  time.Duration // Optional: defaults to DefaultInterval
	Retention time.Duration // Optional: defaults to DefaultRetention
	Logger    *slog.Logger  // Optional: structured logger
	Metrics   statsd.Sink   // Optional: eviction metrics
}

// Runner evicts terminal jobs past their retention window. Active jobs are
// never touched regardless of age.
type Runner struct {
	store     core.JobStore
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewRunner validates options and constructs a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	retention := opts.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		store:     opts.Store,
		interval:  interval,
		retention: retention,
		logger:    logger.With("component", "sweeper"),
		metrics:   opts.Metrics,
	}, nil
}

// Run sweeps immediately and then on every interval until the context ends.
// Returns nil on graceful shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting sweeper",
		"interval", r.interval, "retention", r.retention)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "sweeper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.retention)
	evicted, err := r.store.EvictTerminalBefore(ctx, cutoff)
	if err != nil {
		r.logger.ErrorContext(ctx, "evict terminal jobs", "error", err)
		return
	}
	if evicted > 0 {
		r.logger.InfoContext(ctx, "evicted terminal jobs", "count", evicted)
	}
	if r.metrics != nil {
		r.metrics.Count("sweeper.evicted", int64(evicted), nil)
	}
}
