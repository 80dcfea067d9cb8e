// Package model defines the core data types used throughout the draftforge pipeline.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobState represents the current position of a job in its lifecycle.
type JobState string

const (
	// JobStateQueued indicates the job was accepted but not yet dispatched.
	JobStateQueued JobState = "queued"
	// JobStateGuardrailCheck indicates the topic is being screened.
	JobStateGuardrailCheck JobState = "guardrail_check"
	// JobStateResearching indicates the research stage is running.
	JobStateResearching JobState = "researching"
	// JobStateDrafting indicates the draft stage is running.
	JobStateDrafting JobState = "drafting"
	// JobStateReviewing indicates the artifact is being scored.
	JobStateReviewing JobState = "reviewing"
	// JobStateRefining indicates the artifact is being reworked from feedback.
	JobStateRefining JobState = "refining"
	// JobStateApproved indicates the artifact met the quality gate, or the
	// iteration cap was reached with the cap state configured as approved.
	JobStateApproved JobState = "approved"
	// JobStatePartial indicates the iteration cap was exhausted and the
	// deployment chose to surface best-effort results distinctly.
	JobStatePartial JobState = "partial"
	// JobStateDelivered indicates the delivery sink confirmed hand-off.
	JobStateDelivered JobState = "delivered"
	// JobStateRejected indicates the guardrail refused the topic.
	JobStateRejected JobState = "rejected"
	// JobStateFailed indicates a stage or delivery error aborted the job.
	JobStateFailed JobState = "failed"
)

// Valid returns true if the JobState is one of the defined states.
func (s JobState) Valid() bool {
	switch s {
	case JobStateQueued, JobStateGuardrailCheck, JobStateResearching,
		JobStateDrafting, JobStateReviewing, JobStateRefining,
		JobStateApproved, JobStatePartial, JobStateDelivered,
		JobStateRejected, JobStateFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if no transition may leave the state.
func (s JobState) Terminal() bool {
	return s == JobStateDelivered || s == JobStateRejected || s == JobStateFailed
}

// UnmarshalText implements encoding.TextUnmarshaler for JobState to allow env parsing.
func (s *JobState) UnmarshalText(text []byte) error {
	v := JobState(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobState: %q", string(text))
	}
	*s = v
	return nil
}

// stateTransitions enumerates the legal edges of the job state machine.
// Reviewing and Refining form the only cycle; Failed is reachable from
// every active state.
var stateTransitions = map[JobState][]JobState{
	JobStateQueued:         {JobStateGuardrailCheck, JobStateFailed},
	JobStateGuardrailCheck: {JobStateResearching, JobStateRejected, JobStateFailed},
	JobStateResearching:    {JobStateDrafting, JobStateFailed},
	JobStateDrafting:       {JobStateReviewing, JobStateFailed},
	JobStateReviewing:      {JobStateRefining, JobStateApproved, JobStatePartial, JobStateFailed},
	JobStateRefining:       {JobStateReviewing, JobStateFailed},
	JobStateApproved:       {JobStateDelivered, JobStateFailed},
	JobStatePartial:        {JobStateDelivered, JobStateFailed},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to JobState) bool {
	if from.Terminal() {
		return false
	}
	for _, next := range stateTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReviewEntry records the outcome of one review iteration.
// Entries are append-only and never reordered.
type ReviewEntry struct {
	Iteration int    `json:"iteration"`
	Score     int    `json:"score"`
	Feedback  string `json:"feedback"`
}

// Job is the unit of work, exclusively owned by the orchestrator for its lifetime.
type Job struct {
	ID            string        `json:"id"`
	Request       TopicRequest  `json:"request"`
	State         JobState      `json:"state"`
	Iteration     int           `json:"iteration"`
	ScoreHistory  []ReviewEntry `json:"score_history,omitempty"`
	Artifact      string        `json:"artifact,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewJob creates a queued job for the given request with a fresh id.
func NewJob(req TopicRequest) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        "job-" + uuid.NewString(),
		Request:   req,
		State:     JobStateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy safe to hand out as a snapshot.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if len(j.ScoreHistory) > 0 {
		cp.ScoreHistory = make([]ReviewEntry, len(j.ScoreHistory))
		copy(cp.ScoreHistory, j.ScoreHistory)
	}
	cp.Request = j.Request.Clone()
	return &cp
}

// BestReview returns the highest-scoring review entry, preferring the later
// iteration on a tie. The boolean is false when no review has run.
func (j *Job) BestReview() (ReviewEntry, bool) {
	if len(j.ScoreHistory) == 0 {
		return ReviewEntry{}, false
	}
	best := j.ScoreHistory[0]
	for _, e := range j.ScoreHistory[1:] {
		if e.Score >= best.Score {
			best = e
		}
	}
	return best, true
}
