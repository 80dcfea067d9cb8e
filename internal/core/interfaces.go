// Package core defines the port interfaces consumed by the pipeline services.
package core

import (
	"context"
	"time"

	"github.com/draftforge/draftforge/internal/domain/model"
)

// GenerationService is the opaque collaborator invoked once per pipeline stage.
// Retry policy for transient provider errors belongs behind this interface,
// not to the callers.
type GenerationService interface {
	// Research gathers sources and key points for a topic.
	Research(ctx context.Context, topic string, keywords []string) (*model.ResearchData, error)
	// Draft produces the first artifact text from research data.
	Draft(ctx context.Context, research *model.ResearchData, format model.OutputFormat) (string, error)
	// Review scores an artifact in [0,100] with actionable feedback.
	Review(ctx context.Context, artifact string) (*model.ReviewResult, error)
	// Refine rewrites an artifact according to review feedback.
	Refine(ctx context.Context, artifact, feedback string, format model.OutputFormat) (string, error)
}

// Moderator asks for a semantic safety judgment on a topic.
type Moderator interface {
	Moderate(ctx context.Context, topic string) (*model.SafetyJudgment, error)
}

// InboxSource hands over unread inbound messages. MarkConsumed is called only
// after a request was successfully submitted, trading possible reprocessing
// for never losing a request.
type InboxSource interface {
	FetchUnread(ctx context.Context) ([]model.RawMessage, error)
	MarkConsumed(ctx context.Context, messageID string) error
}

// Delivery is the rendered artifact handed to the sink.
type Delivery struct {
	Subject string         `json:"subject"`
	Body    string         `json:"body"`
	Sources []model.Source `json:"sources,omitempty"`
}

// DeliverySink sends a finished artifact to its destination.
type DeliverySink interface {
	Deliver(ctx context.Context, destination string, delivery Delivery) error
}

// JobStore owns the shared job set. Implementations must be safe for
// concurrent use; Update applies the mutation under the store's lock and
// returns a snapshot of the result.
type JobStore interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
	Update(ctx context.Context, id string, mutate func(*model.Job) error) (*model.Job, error)
	// List returns snapshots ordered most recently created first.
	List(ctx context.Context) ([]*model.Job, error)
	// EvictTerminalBefore removes terminal jobs whose last update predates
	// the cutoff, returning how many were evicted.
	EvictTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
	Stats(ctx context.Context) (map[model.JobState]int, error)
}

// JobArchive records terminal jobs for history beyond the in-memory set.
type JobArchive interface {
	Record(ctx context.Context, job *model.Job) error
}
