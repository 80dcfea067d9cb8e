package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStateTerminal(t *testing.T) {
	terminals := []JobState{JobStateDelivered, JobStateRejected, JobStateFailed}
	for _, s := range terminals {
		assert.True(t, s.Terminal(), "expected %s to be terminal", s)
	}

	active := []JobState{
		JobStateQueued, JobStateGuardrailCheck, JobStateResearching,
		JobStateDrafting, JobStateReviewing, JobStateRefining,
		JobStateApproved, JobStatePartial,
	}
	for _, s := range active {
		assert.False(t, s.Terminal(), "expected %s to be active", s)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from JobState
		to   JobState
		want bool
	}{
		{"queued to guardrail check", JobStateQueued, JobStateGuardrailCheck, true},
		{"guardrail check to researching", JobStateGuardrailCheck, JobStateResearching, true},
		{"guardrail check to rejected", JobStateGuardrailCheck, JobStateRejected, true},
		{"researching to drafting", JobStateResearching, JobStateDrafting, true},
		{"drafting to reviewing", JobStateDrafting, JobStateReviewing, true},
		{"reviewing to refining", JobStateReviewing, JobStateRefining, true},
		{"refining back to reviewing", JobStateRefining, JobStateReviewing, true},
		{"reviewing to approved", JobStateReviewing, JobStateApproved, true},
		{"reviewing to partial", JobStateReviewing, JobStatePartial, true},
		{"approved to delivered", JobStateApproved, JobStateDelivered, true},
		{"partial to delivered", JobStatePartial, JobStateDelivered, true},
		{"reviewing to failed", JobStateReviewing, JobStateFailed, true},

		{"queued cannot skip to researching", JobStateQueued, JobStateResearching, false},
		{"researching cannot skip to reviewing", JobStateResearching, JobStateReviewing, false},
		{"drafting cannot go back to researching", JobStateDrafting, JobStateResearching, false},
		{"approved cannot re-enter reviewing", JobStateApproved, JobStateReviewing, false},
		{"delivered is terminal", JobStateDelivered, JobStateFailed, false},
		{"rejected is terminal", JobStateRejected, JobStateQueued, false},
		{"failed is terminal", JobStateFailed, JobStateQueued, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestNewJob(t *testing.T) {
	req := TopicRequest{
		Topic:       "the history of coffee",
		Destination: "reader@example.com",
		Format:      OutputFormatBlogPost,
	}

	job := NewJob(req)

	assert.True(t, strings.HasPrefix(job.ID, "job-"))
	assert.Equal(t, JobStateQueued, job.State)
	assert.Equal(t, 0, job.Iteration)
	assert.Empty(t, job.ScoreHistory)
	assert.False(t, job.CreatedAt.IsZero())
	assert.Equal(t, job.CreatedAt, job.UpdatedAt)

	other := NewJob(req)
	assert.NotEqual(t, job.ID, other.ID)
}

func TestJobClone(t *testing.T) {
	job := NewJob(TopicRequest{
		Topic:       "topic",
		Keywords:    []string{"a", "b"},
		Destination: "dest@example.com",
	})
	job.ScoreHistory = []ReviewEntry{{Iteration: 0, Score: 70, Feedback: "tighten intro"}}

	cp := job.Clone()
	cp.ScoreHistory[0].Score = 99
	cp.Request.Keywords[0] = "mutated"
	cp.State = JobStateFailed

	assert.Equal(t, 70, job.ScoreHistory[0].Score)
	assert.Equal(t, "a", job.Request.Keywords[0])
	assert.Equal(t, JobStateQueued, job.State)
}

func TestBestReview(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		job := &Job{}
		_, ok := job.BestReview()
		assert.False(t, ok)
	})

	t.Run("highest score wins", func(t *testing.T) {
		job := &Job{ScoreHistory: []ReviewEntry{
			{Iteration: 0, Score: 60},
			{Iteration: 1, Score: 85},
			{Iteration: 2, Score: 72},
		}}
		best, ok := job.BestReview()
		require.True(t, ok)
		assert.Equal(t, 1, best.Iteration)
	})

	t.Run("later iteration wins ties", func(t *testing.T) {
		job := &Job{ScoreHistory: []ReviewEntry{
			{Iteration: 0, Score: 85},
			{Iteration: 1, Score: 60},
			{Iteration: 2, Score: 85},
		}}
		best, ok := job.BestReview()
		require.True(t, ok)
		assert.Equal(t, 2, best.Iteration)
	})
}

func TestOutputFormatParsing(t *testing.T) {
	assert.Equal(t, OutputFormatNewsletter, ParseOutputFormat(" Newsletter "))
	assert.Equal(t, OutputFormatSummary, ParseOutputFormat("summary"))
	assert.Equal(t, OutputFormatBlogPost, ParseOutputFormat("blog post"))
	assert.Equal(t, OutputFormatBlogPost, ParseOutputFormat("something else"))

	var f OutputFormat
	require.NoError(t, f.UnmarshalText([]byte("newsletter")))
	assert.Equal(t, OutputFormatNewsletter, f)
	assert.Error(t, f.UnmarshalText([]byte("haiku")))
}

func TestTopicRequestValidate(t *testing.T) {
	t.Run("destination required", func(t *testing.T) {
		err := TopicRequest{Topic: "topic"}.Validate()
		assert.Error(t, err)
	})

	t.Run("empty topic passes intake", func(t *testing.T) {
		err := TopicRequest{Destination: "dest@example.com"}.Validate()
		assert.NoError(t, err)
	})

	t.Run("bad format rejected", func(t *testing.T) {
		err := TopicRequest{Destination: "dest@example.com", Format: "haiku"}.Validate()
		assert.Error(t, err)
	})
}
