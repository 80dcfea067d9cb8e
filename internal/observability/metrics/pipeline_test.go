package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	name  string
	value float64
	tags  map[string]string
}

// recordingSink captures emitted metrics for assertions.
type recordingSink struct {
	counts  []recordedMetric
	gauges  []recordedMetric
	timings []recordedMetric
}

func (s *recordingSink) Count(name string, value int64, tags map[string]string) {
	s.counts = append(s.counts, recordedMetric{name, float64(value), tags})
}

func (s *recordingSink) Gauge(name string, value float64, tags map[string]string) {
	s.gauges = append(s.gauges, recordedMetric{name, value, tags})
}

func (s *recordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	s.timings = append(s.timings, recordedMetric{name, float64(value), tags})
}

func TestEmitStage(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		sink := &recordingSink{}
		EmitStage(sink, StageMetric{Stage: "draft", Result: ResultSuccess, Duration: time.Second})

		require.Len(t, sink.counts, 1)
		assert.Equal(t, "pipeline.stage", sink.counts[0].name)
		assert.Equal(t, "draft", sink.counts[0].tags["stage"])
		assert.Equal(t, ResultSuccess, sink.counts[0].tags["result"])

		require.Len(t, sink.timings, 1)
		assert.Equal(t, "pipeline.stage_duration", sink.timings[0].name)
	})

	t.Run("error carries class tag", func(t *testing.T) {
		sink := &recordingSink{}
		EmitStage(sink, StageMetric{
			Stage:  "review",
			Result: ResultError,
			Err:    errors.New("boom"),
		})

		require.Len(t, sink.counts, 1)
		assert.Equal(t, "internal", sink.counts[0].tags["error_class"])
		assert.Empty(t, sink.timings, "zero duration emits no timing")
	})

	t.Run("nil sink is a no-op", func(t *testing.T) {
		EmitStage(nil, StageMetric{Stage: "draft", Result: ResultSuccess})
	})
}

func TestEmitVerdict(t *testing.T) {
	sink := &recordingSink{}
	EmitVerdict(sink, "keyword_filter", false)
	EmitVerdict(sink, "ai_moderation", true)

	require.Len(t, sink.counts, 2)
	assert.Equal(t, "blocked", sink.counts[0].tags["outcome"])
	assert.Equal(t, "keyword_filter", sink.counts[0].tags["stage"])
	assert.Equal(t, "allowed", sink.counts[1].tags["outcome"])
}

func TestEmitPollTick(t *testing.T) {
	t.Run("submitted requests", func(t *testing.T) {
		sink := &recordingSink{}
		EmitPollTick(sink, 2, 30*time.Millisecond, nil)

		require.Len(t, sink.counts, 2)
		assert.Equal(t, "poller.tick", sink.counts[0].name)
		assert.Equal(t, ResultSuccess, sink.counts[0].tags["result"])
		assert.Equal(t, "poller.requests_submitted", sink.counts[1].name)
		assert.Equal(t, float64(2), sink.counts[1].value)

		require.Len(t, sink.gauges, 1)
		assert.Equal(t, "poller.last_success_epoch", sink.gauges[0].name)
	})

	t.Run("empty tick is a noop result", func(t *testing.T) {
		sink := &recordingSink{}
		EmitPollTick(sink, 0, 5*time.Millisecond, nil)

		require.Len(t, sink.counts, 1)
		assert.Equal(t, ResultNoop, sink.counts[0].tags["result"])
	})

	t.Run("fetch error skips the freshness gauge", func(t *testing.T) {
		sink := &recordingSink{}
		EmitPollTick(sink, 0, time.Millisecond, errors.New("gateway down"))

		require.Len(t, sink.counts, 1)
		assert.Equal(t, ResultError, sink.counts[0].tags["result"])
		assert.Empty(t, sink.gauges)
	})
}

func TestEmitJobOutcome(t *testing.T) {
	sink := &recordingSink{}
	EmitJobOutcome(sink, "delivered", 3)

	require.Len(t, sink.counts, 1)
	assert.Equal(t, "job.terminal", sink.counts[0].name)
	assert.Equal(t, "delivered", sink.counts[0].tags["state"])

	require.Len(t, sink.gauges, 1)
	assert.Equal(t, float64(3), sink.gauges[0].value)
}
