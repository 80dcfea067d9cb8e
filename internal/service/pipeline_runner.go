// Package service implements the job orchestrator and the pipeline stage runner.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/draftforge/draftforge/internal/core"
	"github.com/draftforge/draftforge/internal/domain/model"
	"github.com/draftforge/draftforge/internal/domain/pipeline"
	apperrors "github.com/draftforge/draftforge/internal/errors"
	"github.com/draftforge/draftforge/internal/observability/metrics"
	"github.com/draftforge/draftforge/internal/observability/statsd"
)

// PipelineRunnerOptions groups dependencies for PipelineRunner.
type PipelineRunnerOptions struct {
	Generator core.GenerationService // Required: stage collaborator
	Sink      core.DeliverySink      // Required: delivery collaborator
	Store     core.JobStore          // Required: shared job set
	Policy    *pipeline.LoopPolicy   // Required: review/refine bounds
	CapState  pipeline.CapState      // Optional: defaults to approved
	Logger    *slog.Logger           // Optional: structured logger
	Metrics   statsd.Sink            // Optional: stage metrics
	Recorders []core.JobArchive      // Optional: terminal job recorders
}

// PipelineRunner drives one job through the generation stages and owns the
// bounded review/refine loop. It mutates jobs only through the store so
// every transition is visible to concurrent status readers.
type PipelineRunner struct {
	generator core.GenerationService
	sink      core.DeliverySink
	store     core.JobStore
	policy    *pipeline.LoopPolicy
	capState  pipeline.CapState
	logger    *slog.Logger
	metrics   statsd.Sink
	recorders []core.JobArchive
}

// NewPipelineRunner validates options and constructs a PipelineRunner.
func NewPipelineRunner(opts PipelineRunnerOptions) (*PipelineRunner, error) {
	if opts.Generator == nil {
		return nil, errors.New("GenerationService is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("DeliverySink is required")
	}
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.Policy == nil {
		return nil, errors.New("LoopPolicy is required")
	}

	capState := opts.CapState
	if !capState.Valid() {
		capState = pipeline.CapStateApproved
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PipelineRunner{
		generator: opts.Generator,
		sink:      opts.Sink,
		store:     opts.Store,
		policy:    opts.Policy,
		capState:  capState,
		logger:    logger.With("component", "pipeline_runner"),
		metrics:   opts.Metrics,
		recorders: opts.Recorders,
	}, nil
}

// Run executes the stage sequence for one job that already passed the
// guardrail. Any stage error transitions the job to failed; Run itself only
// returns an error for store-level problems.
func (r *PipelineRunner) Run(ctx context.Context, jobID string) error {
	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	research, err := r.runResearch(ctx, job)
	if err != nil {
		return r.fail(ctx, jobID, apperrors.StageFailure("research", err))
	}

	artifact, err := r.runDraft(ctx, jobID, job.Request.Format, research)
	if err != nil {
		return r.fail(ctx, jobID, apperrors.StageFailure("draft", err))
	}

	final, err := r.runReviewLoop(ctx, jobID, job.Request.Format, artifact)
	if err != nil {
		return r.fail(ctx, jobID, err)
	}

	if err := r.deliver(ctx, jobID, job.Request, final, research); err != nil {
		return r.fail(ctx, jobID, apperrors.DeliveryFailure(err))
	}
	return nil
}

func (r *PipelineRunner) runResearch(ctx context.Context, job *model.Job) (*model.ResearchData, error) {
	if err := r.transition(ctx, job.ID, model.JobStateResearching, nil); err != nil {
		return nil, err
	}

	start := time.Now()
	research, err := r.generator.Research(ctx, job.Request.Topic, job.Request.Keywords)
	r.emitStage("research", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "research complete",
		"job_id", job.ID, "sources", len(research.Sources))
	return research, nil
}

func (r *PipelineRunner) runDraft(
	ctx context.Context,
	jobID string,
	format model.OutputFormat,
	research *model.ResearchData,
) (string, error) {
	if err := r.transition(ctx, jobID, model.JobStateDrafting, nil); err != nil {
		return "", err
	}

	start := time.Now()
	artifact, err := r.generator.Draft(ctx, research, format)
	r.emitStage("draft", time.Since(start), err)
	if err != nil {
		return "", err
	}

	if _, err := r.store.Update(ctx, jobID, func(j *model.Job) error {
		j.Artifact = artifact
		return nil
	}); err != nil {
		return "", err
	}
	return artifact, nil
}

// runReviewLoop executes the bounded review/refine cycle and returns the
// final artifact. Every reviewed artifact is retained as a candidate so the
// cap-exhausted exit selects the best text, with later iterations winning
// score ties.
func (r *PipelineRunner) runReviewLoop(
	ctx context.Context,
	jobID string,
	format model.OutputFormat,
	artifact string,
) (string, error) {
	var candidates []pipeline.Candidate
	iteration := 0

	for {
		if err := r.transition(ctx, jobID, model.JobStateReviewing, nil); err != nil {
			return "", err
		}

		start := time.Now()
		review, err := r.generator.Review(ctx, artifact)
		r.emitStage("review", time.Since(start), err)
		if err != nil {
			return "", apperrors.StageFailure("review", err)
		}

		entry := model.ReviewEntry{
			Iteration: iteration,
			Score:     clampScore(review.Score),
			Feedback:  review.Feedback,
		}
		candidates = append(candidates, pipeline.Candidate{Entry: entry, Artifact: artifact})
		if _, err := r.store.Update(ctx, jobID, func(j *model.Job) error {
			j.ScoreHistory = append(j.ScoreHistory, entry)
			return nil
		}); err != nil {
			return "", err
		}

		decision := r.policy.Advance(entry.Score, iteration)
		r.logger.InfoContext(ctx, "review complete",
			"job_id", jobID, "iteration", iteration,
			"score", entry.Score, "decision", string(decision))

		switch decision {
		case pipeline.DecisionApprove:
			if err := r.transition(ctx, jobID, model.JobStateApproved, nil); err != nil {
				return "", err
			}
			return artifact, nil

		case pipeline.DecisionCapExhausted:
			best, _ := pipeline.SelectBest(candidates)
			if err := r.transition(ctx, jobID, r.capState.JobState(), func(j *model.Job) error {
				j.Artifact = best.Artifact
				return nil
			}); err != nil {
				return "", err
			}
			r.logger.InfoContext(ctx, "iteration cap reached, selecting best artifact",
				"job_id", jobID, "best_iteration", best.Entry.Iteration, "best_score", best.Entry.Score)
			return best.Artifact, nil

		case pipeline.DecisionRefine:
			if err := r.transition(ctx, jobID, model.JobStateRefining, nil); err != nil {
				return "", err
			}

			start := time.Now()
			refined, err := r.generator.Refine(ctx, artifact, entry.Feedback, format)
			r.emitStage("refine", time.Since(start), err)
			if err != nil {
				return "", apperrors.StageFailure("refine", err)
			}

			artifact = refined
			iteration++
			if _, err := r.store.Update(ctx, jobID, func(j *model.Job) error {
				j.Artifact = refined
				j.Iteration++
				return nil
			}); err != nil {
				return "", err
			}
		}
	}
}

func (r *PipelineRunner) deliver(
	ctx context.Context,
	jobID string,
	req model.TopicRequest,
	artifact string,
	research *model.ResearchData,
) error {
	delivery := core.Delivery{
		Subject: "Your content is ready: " + req.Topic,
		Body:    artifact,
	}
	if research != nil {
		delivery.Sources = research.Sources
	}

	start := time.Now()
	err := r.sink.Deliver(ctx, req.Destination, delivery)
	r.emitStage("deliver", time.Since(start), err)
	if err != nil {
		return err
	}

	if err := r.transition(ctx, jobID, model.JobStateDelivered, nil); err != nil {
		return err
	}
	r.finalize(ctx, jobID)
	return nil
}

// fail moves the job to the failed terminal state with a machine-readable
// reason. The original cause is logged, not returned: callers of submit
// observe outcomes exclusively through status.
func (r *PipelineRunner) fail(ctx context.Context, jobID string, cause error) error {
	r.logger.ErrorContext(ctx, "job failed", "job_id", jobID, "error", cause)

	if err := r.transition(ctx, jobID, model.JobStateFailed, func(j *model.Job) error {
		j.FailureReason = failureReason(cause)
		return nil
	}); err != nil {
		return fmt.Errorf("fail job %s: %w", jobID, err)
	}
	r.finalize(ctx, jobID)
	return nil
}

// transition moves the job to the next state, enforcing the state machine
// table, and applies an optional extra mutation under the same lock.
func (r *PipelineRunner) transition(
	ctx context.Context,
	jobID string,
	to model.JobState,
	mutate func(*model.Job) error,
) error {
	_, err := r.store.Update(ctx, jobID, func(j *model.Job) error {
		if !model.CanTransition(j.State, to) {
			return apperrors.Internal(
				fmt.Sprintf("illegal transition %s -> %s for job %s", j.State, to, j.ID))
		}
		j.State = to
		if mutate != nil {
			return mutate(j)
		}
		return nil
	})
	return err
}

// finalize records the terminal job with the configured recorders and emits
// outcome metrics. Recorder errors are logged, never propagated: history is
// best effort.
func (r *PipelineRunner) finalize(ctx context.Context, jobID string) {
	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		r.logger.WarnContext(ctx, "load job for finalize", "job_id", jobID, "error", err)
		return
	}
	metrics.EmitJobOutcome(r.metrics, string(job.State), job.Iteration)

	for _, rec := range r.recorders {
		if rec == nil {
			continue
		}
		if err := rec.Record(ctx, job); err != nil {
			r.logger.WarnContext(ctx, "record terminal job", "job_id", jobID, "error", err)
		}
	}
}

func (r *PipelineRunner) emitStage(stage string, elapsed time.Duration, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitStage(r.metrics, metrics.StageMetric{
		Stage:    stage,
		Result:   result,
		Duration: elapsed,
		Err:      err,
	})
}

// failureReason reduces an error to the short status-visible reason, without
// the wrapped cause chain.
func failureReason(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
