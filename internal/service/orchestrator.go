package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/draftforge/draftforge/internal/core"
	"github.com/draftforge/draftforge/internal/domain/model"
	"github.com/draftforge/draftforge/internal/guardrail"
	"github.com/draftforge/draftforge/internal/observability/metrics"
	"github.com/draftforge/draftforge/internal/observability/statsd"
)

// DefaultMaxConcurrent bounds how many jobs run pipeline stages at once.
const DefaultMaxConcurrent = 4

// JobRunner executes the pipeline stages for a job that passed the guardrail.
type JobRunner interface {
	Run(ctx context.Context, jobID string) error
}

// Runnable is a long-running loop such as the inbox poller.
type Runnable interface {
	Run(ctx context.Context) error
}

// OrchestratorOptions groups dependencies for the Orchestrator.
type OrchestratorOptions struct {
	Store         core.JobStore      // Required: shared job set
	Guardrail     *guardrail.Checker // Required: pre-pipeline gate
	Runner        JobRunner          // Required: pipeline stage runner
	Logger        *slog.Logger       // Optional: structured logger
	Metrics       statsd.Sink        // Optional: submit/verdict metrics
	Recorders     []core.JobArchive  // Optional: terminal job recorders
	MaxConcurrent int64              // Optional: defaults to DefaultMaxConcurrent
}

// Orchestrator owns the job lifecycle: it accepts topic requests, applies
// the guardrail, dispatches accepted jobs to the pipeline runner on a
// bounded worker pool, and answers status queries. It also holds the
// on/off switch for the inbox poller.
type Orchestrator struct {
	store     core.JobStore
	guard     *guardrail.Checker
	runner    JobRunner
	logger    *slog.Logger
	metrics   statsd.Sink
	recorders []core.JobArchive
	sem       *semaphore.Weighted

	// baseCtx outlives individual submit calls so dispatched jobs are not
	// torn down when a caller's request context ends.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu         sync.Mutex
	poller     Runnable
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// NewOrchestrator validates options and constructs an Orchestrator.
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.Guardrail == nil {
		return nil, errors.New("guardrail Checker is required")
	}
	if opts.Runner == nil {
		return nil, errors.New("JobRunner is required")
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:     opts.Store,
		guard:     opts.Guardrail,
		runner:    opts.Runner,
		logger:    logger.With("component", "orchestrator"),
		metrics:   opts.Metrics,
		recorders: opts.Recorders,
		sem:       semaphore.NewWeighted(maxConcurrent),
		baseCtx:   ctx,
		cancel:    cancel,
	}, nil
}

// Submit accepts a topic request, applies the guardrail, and on a pass
// dispatches the job to the pipeline asynchronously. It always returns a job
// id when the request itself is well formed; guardrail rejections surface as
// the rejected terminal state, not as an error.
func (o *Orchestrator) Submit(ctx context.Context, req model.TopicRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	job := model.NewJob(req)
	if err := o.store.Create(ctx, job); err != nil {
		return "", err
	}
	o.logger.InfoContext(ctx, "job submitted",
		"job_id", job.ID, "topic", req.Topic, "format", string(req.Format))

	if _, err := o.store.Update(ctx, job.ID, func(j *model.Job) error {
		j.State = model.JobStateGuardrailCheck
		return nil
	}); err != nil {
		return "", err
	}

	verdict := o.guard.Check(ctx, req.Topic)
	metrics.EmitVerdict(o.metrics, string(verdict.Stage), verdict.Allowed)
	if !verdict.Allowed {
		rejection := guardrail.RejectionError(verdict)
		if _, err := o.store.Update(ctx, job.ID, func(j *model.Job) error {
			j.State = model.JobStateRejected
			j.FailureReason = rejection.Message
			return nil
		}); err != nil {
			return "", err
		}
		o.logger.InfoContext(ctx, "job rejected by guardrail",
			"job_id", job.ID, "stage", string(verdict.Stage),
			"code", string(rejection.Code), "reason", rejection.Message)
		o.recordTerminal(ctx, job.ID)
		return job.ID, nil
	}

	o.dispatch(job.ID)
	return job.ID, nil
}

// dispatch hands the job to the pipeline runner on the bounded pool. Jobs
// beyond the concurrency limit wait in guardrail_check until a slot frees.
func (o *Orchestrator) dispatch(jobID string) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		if err := o.sem.Acquire(o.baseCtx, 1); err != nil {
			o.logger.WarnContext(o.baseCtx, "dispatch canceled before start", "job_id", jobID)
			return
		}
		defer o.sem.Release(1)

		if err := o.runner.Run(o.baseCtx, jobID); err != nil {
			o.logger.ErrorContext(o.baseCtx, "pipeline run error", "job_id", jobID, "error", err)
		}
	}()
}

// Status returns a snapshot of one job.
func (o *Orchestrator) Status(ctx context.Context, jobID string) (*model.Job, error) {
	return o.store.Get(ctx, jobID)
}

// List returns snapshots of all retained jobs, newest first.
func (o *Orchestrator) List(ctx context.Context) ([]*model.Job, error) {
	return o.store.List(ctx)
}

// Stats returns the per-state job counts.
func (o *Orchestrator) Stats(ctx context.Context) (map[model.JobState]int, error) {
	return o.store.Stats(ctx)
}

// SetPoller wires the inbox poller loop controlled by StartPolling and
// StopPolling. Must be called before StartPolling.
func (o *Orchestrator) SetPoller(p Runnable) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.poller = p
}

// StartPolling starts the inbox poller loop. Calling it while the poller is
// already running is a no-op.
func (o *Orchestrator) StartPolling() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.poller == nil {
		o.logger.Warn("start polling requested but no poller is configured")
		return
	}
	if o.pollCancel != nil {
		o.logger.Info("poller already running")
		return
	}

	ctx, cancel := context.WithCancel(o.baseCtx)
	done := make(chan struct{})
	o.pollCancel = cancel
	o.pollDone = done

	go func() {
		defer close(done)
		if err := o.poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			o.logger.ErrorContext(ctx, "poller stopped with error", "error", err)
		}
	}()
	o.logger.Info("poller started")
}

// StopPolling stops the inbox poller loop and waits for it to exit. Calling
// it while the poller is not running is a no-op. In-flight jobs are not
// affected.
func (o *Orchestrator) StopPolling() {
	o.mu.Lock()
	cancel, done := o.pollCancel, o.pollDone
	o.pollCancel, o.pollDone = nil, nil
	o.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	o.logger.Info("poller stopped")
}

// Close stops the poller, cancels in-flight pipeline work, and waits for
// dispatched goroutines to finish.
func (o *Orchestrator) Close() {
	o.StopPolling()
	o.cancel()
	o.wg.Wait()
}

// recordTerminal persists a terminal job with the configured recorders and
// emits outcome metrics. Both are best effort.
func (o *Orchestrator) recordTerminal(ctx context.Context, jobID string) {
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		o.logger.WarnContext(ctx, "load job for record", "job_id", jobID, "error", err)
		return
	}
	metrics.EmitJobOutcome(o.metrics, string(job.State), job.Iteration)

	for _, rec := range o.recorders {
		if rec == nil {
			continue
		}
		if err := rec.Record(ctx, job); err != nil {
			o.logger.WarnContext(ctx, "record terminal job", "job_id", jobID, "error", err)
		}
	}
}
