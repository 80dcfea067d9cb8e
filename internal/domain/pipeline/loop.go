// Package pipeline holds the pure policy for the bounded review/refine loop.
package pipeline

import (
	"errors"

	"github.com/draftforge/draftforge/internal/domain/model"
)

// ErrInvalidLoopPolicy indicates the loop was configured with non-positive bounds.
var ErrInvalidLoopPolicy = errors.New("quality threshold must be in [0,100] and max iterations positive")

// Decision is the outcome of evaluating one review score against the policy.
type Decision string

const (
	// DecisionApprove terminates the loop: the score met the threshold.
	DecisionApprove Decision = "approve"
	// DecisionRefine continues the loop with another refine/review cycle.
	DecisionRefine Decision = "refine"
	// DecisionCapExhausted terminates the loop at the iteration cap; the
	// best-scoring artifact so far is selected.
	DecisionCapExhausted Decision = "cap_exhausted"
)

// CapState selects the terminal state used when the iteration cap is
// exhausted. Whether best-effort results fold into approved or surface as a
// distinct partial state is a deployment choice.
type CapState string

const (
	// CapStateApproved folds best-effort results into the approved state.
	CapStateApproved CapState = "approved"
	// CapStatePartial marks best-effort results with a distinct state.
	CapStatePartial CapState = "partial"
)

// Valid returns true for a recognised cap state.
func (c CapState) Valid() bool {
	return c == CapStateApproved || c == CapStatePartial
}

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (c *CapState) UnmarshalText(text []byte) error {
	v := CapState(string(text))
	if !v.Valid() {
		return errors.New("cap state must be approved or partial")
	}
	*c = v
	return nil
}

// JobState maps the cap state onto the job state machine.
func (c CapState) JobState() model.JobState {
	if c == CapStatePartial {
		return model.JobStatePartial
	}
	return model.JobStateApproved
}

// LoopPolicy is the transition table for the review/refine cycle.
// iteration counts completed review cycles and starts at 0, so review
// number n sees iteration == n-1 when it is evaluated.
type LoopPolicy struct {
	qualityThreshold int
	maxIterations    int
}

// NewLoopPolicy validates and constructs a LoopPolicy.
func NewLoopPolicy(qualityThreshold, maxIterations int) (*LoopPolicy, error) {
	if qualityThreshold < 0 || qualityThreshold > 100 || maxIterations <= 0 {
		return nil, ErrInvalidLoopPolicy
	}
	return &LoopPolicy{
		qualityThreshold: qualityThreshold,
		maxIterations:    maxIterations,
	}, nil
}

// QualityThreshold returns the minimum approving score.
func (p *LoopPolicy) QualityThreshold() int { return p.qualityThreshold }

// MaxIterations returns the refine cap.
func (p *LoopPolicy) MaxIterations() int { return p.maxIterations }

// Advance evaluates one review outcome. The threshold check runs before the
// cap check, so a passing score on the final permitted iteration still
// approves normally.
func (p *LoopPolicy) Advance(score, iteration int) Decision {
	switch {
	case score >= p.qualityThreshold:
		return DecisionApprove
	case iteration >= p.maxIterations:
		return DecisionCapExhausted
	default:
		return DecisionRefine
	}
}

// Candidate pairs a reviewed artifact with its score history entry so the
// cap-exhausted exit can select the best text, not merely the best score.
type Candidate struct {
	Entry    model.ReviewEntry
	Artifact string
}

// SelectBest picks the highest-scoring candidate; on a tie the later
// iteration wins because it is assumed more refined.
func SelectBest(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Entry.Score >= best.Entry.Score {
			best = c
		}
	}
	return best, true
}
