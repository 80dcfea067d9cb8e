// Package metrics provides standardised metric emission helpers for the
// pipeline, guardrail and poller.
package metrics

import (
	"time"

	apperrors "github.com/draftforge/draftforge/internal/errors"
	"github.com/draftforge/draftforge/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// StageMetric captures one pipeline stage execution for metric emission.
type StageMetric struct {
	Stage    string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitStage emits counters and timings for one pipeline stage.
func EmitStage(sink statsd.Sink, in StageMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"stage":  in.Stage,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := apperrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("pipeline.stage", 1, tags)
	if in.Duration > 0 {
		sink.Timing("pipeline.stage_duration", in.Duration, cloneTags(tags))
	}
}

// EmitVerdict counts guardrail outcomes by stage.
func EmitVerdict(sink statsd.Sink, stage string, allowed bool) {
	if sink == nil {
		return
	}
	outcome := "blocked"
	if allowed {
		outcome = "allowed"
	}
	sink.Count("guardrail.verdict", 1, map[string]string{
		"stage":   stage,
		"outcome": outcome,
	})
}

// EmitPollTick emits poll loop counters and a freshness gauge on success.
func EmitPollTick(sink statsd.Sink, submitted int, elapsed time.Duration, err error) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	if err != nil {
		result = ResultError
	} else if submitted == 0 {
		result = ResultNoop
	}

	tags := map[string]string{"result": result}
	sink.Count("poller.tick", 1, tags)
	if submitted > 0 {
		sink.Count("poller.requests_submitted", int64(submitted), cloneTags(tags))
	}
	if elapsed > 0 {
		sink.Timing("poller.tick_duration", elapsed, cloneTags(tags))
	}
	if err == nil {
		sink.Gauge("poller.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

// EmitJobOutcome counts terminal job states.
func EmitJobOutcome(sink statsd.Sink, state string, iterations int) {
	if sink == nil {
		return
	}
	sink.Count("job.terminal", 1, map[string]string{"state": state})
	sink.Gauge("job.iterations", float64(iterations), map[string]string{"state": state})
}

func cloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
