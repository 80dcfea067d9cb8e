package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/draftforge/draftforge/internal/core"
	"github.com/draftforge/draftforge/internal/domain/model"
	"github.com/draftforge/draftforge/internal/domain/pipeline"
	"github.com/draftforge/draftforge/internal/mocks"
	"github.com/draftforge/draftforge/internal/store"
)

type runnerFixture struct {
	runner    *PipelineRunner
	store     *store.MemoryStore
	generator *mocks.MockGenerationService
	sink      *mocks.MockDeliverySink
	archive   *mocks.MockJobArchive
	jobID     string
}

func newRunnerFixture(t *testing.T, capState pipeline.CapState) *runnerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &runnerFixture{
		store:     store.NewMemoryStore(),
		generator: mocks.NewMockGenerationService(ctrl),
		sink:      mocks.NewMockDeliverySink(ctrl),
		archive:   mocks.NewMockJobArchive(ctrl),
	}

	policy, err := pipeline.NewLoopPolicy(90, 5)
	require.NoError(t, err)

	f.runner, err = NewPipelineRunner(PipelineRunnerOptions{
		Generator: f.generator,
		Sink:      f.sink,
		Store:     f.store,
		Policy:    policy,
		CapState:  capState,
		Recorders: []core.JobArchive{f.archive},
	})
	require.NoError(t, err)

	// Jobs arrive at the runner after passing the guardrail.
	job := model.NewJob(model.TopicRequest{
		Topic:       "coffee history",
		Destination: "writer@example.com",
		Format:      model.OutputFormatBlogPost,
	})
	require.NoError(t, f.store.Create(context.Background(), job))
	_, err = f.store.Update(context.Background(), job.ID, func(j *model.Job) error {
		j.State = model.JobStateGuardrailCheck
		return nil
	})
	require.NoError(t, err)
	f.jobID = job.ID
	return f
}

func (f *runnerFixture) job(t *testing.T) *model.Job {
	t.Helper()
	job, err := f.store.Get(context.Background(), f.jobID)
	require.NoError(t, err)
	return job
}

func (f *runnerFixture) expectResearchAndDraft() {
	research := &model.ResearchData{
		Topic:   "coffee history",
		Sources: []model.Source{{Title: "Coffee origins", URI: "https://example.com/coffee"}},
	}
	f.generator.EXPECT().
		Research(gomock.Any(), "coffee history", gomock.Any()).
		Return(research, nil)
	f.generator.EXPECT().
		Draft(gomock.Any(), research, model.OutputFormatBlogPost).
		Return("draft v0", nil)
}

func TestPipelineRunnerApprovesAfterRefinement(t *testing.T) {
	f := newRunnerFixture(t, pipeline.CapStateApproved)
	f.expectResearchAndDraft()

	// Scores 60, 75, 92: two refines, approval on the third review.
	scores := []int{60, 75, 92}
	reviews := 0
	f.generator.EXPECT().
		Review(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string) (*model.ReviewResult, error) {
			score := scores[reviews]
			reviews++
			return &model.ReviewResult{Score: score, Feedback: "tighten intro"}, nil
		}).
		Times(3)
	refines := 0
	f.generator.EXPECT().
		Refine(gomock.Any(), gomock.Any(), "tighten intro", model.OutputFormatBlogPost).
		DoAndReturn(func(_ context.Context, _, _ string, _ model.OutputFormat) (string, error) {
			refines++
			return fmt.Sprintf("draft v%d", refines), nil
		}).
		Times(2)
	f.sink.EXPECT().
		Deliver(gomock.Any(), "writer@example.com", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, d core.Delivery) error {
			assert.Equal(t, "Your content is ready: coffee history", d.Subject)
			assert.Equal(t, "draft v2", d.Body)
			assert.Len(t, d.Sources, 1)
			return nil
		})
	f.archive.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, f.runner.Run(context.Background(), f.jobID))

	job := f.job(t)
	assert.Equal(t, model.JobStateDelivered, job.State)
	assert.Equal(t, 2, job.Iteration)
	require.Len(t, job.ScoreHistory, 3)
	assert.Equal(t, []int{60, 75, 92},
		[]int{job.ScoreHistory[0].Score, job.ScoreHistory[1].Score, job.ScoreHistory[2].Score})
	assert.Equal(t, "draft v2", job.Artifact)
	assert.Empty(t, job.FailureReason)
}

func TestPipelineRunnerCapExhaustedPicksBest(t *testing.T) {
	f := newRunnerFixture(t, pipeline.CapStateApproved)
	f.expectResearchAndDraft()

	// Six reviews all below the threshold: the loop stops after five
	// refinements and ships the best-scoring artifact. The tie between
	// iterations 2 and 4 goes to the later one.
	scores := []int{50, 60, 80, 70, 80, 65}
	reviews := 0
	f.generator.EXPECT().
		Review(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string) (*model.ReviewResult, error) {
			score := scores[reviews]
			reviews++
			return &model.ReviewResult{Score: score, Feedback: "needs work"}, nil
		}).
		Times(6)
	refines := 0
	f.generator.EXPECT().
		Refine(gomock.Any(), gomock.Any(), "needs work", model.OutputFormatBlogPost).
		DoAndReturn(func(_ context.Context, _, _ string, _ model.OutputFormat) (string, error) {
			refines++
			return fmt.Sprintf("draft v%d", refines), nil
		}).
		Times(5)
	f.sink.EXPECT().
		Deliver(gomock.Any(), "writer@example.com", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, d core.Delivery) error {
			// Iteration 4 reviewed "draft v4".
			assert.Equal(t, "draft v4", d.Body)
			return nil
		})
	f.archive.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, f.runner.Run(context.Background(), f.jobID))

	job := f.job(t)
	assert.Equal(t, model.JobStateDelivered, job.State)
	assert.Equal(t, 5, job.Iteration)
	require.Len(t, job.ScoreHistory, 6)
	assert.Equal(t, "draft v4", job.Artifact)
}

func TestPipelineRunnerCapStatePartial(t *testing.T) {
	f := newRunnerFixture(t, pipeline.CapStatePartial)
	f.expectResearchAndDraft()

	f.generator.EXPECT().
		Review(gomock.Any(), gomock.Any()).
		Return(&model.ReviewResult{Score: 40, Feedback: "weak"}, nil).
		Times(6)
	f.generator.EXPECT().
		Refine(gomock.Any(), gomock.Any(), "weak", model.OutputFormatBlogPost).
		Return("reworked", nil).
		Times(5)
	// Best-effort results still get delivered; partial is a waypoint on the way
	// to the delivered terminal state.
	f.sink.EXPECT().Deliver(gomock.Any(), "writer@example.com", gomock.Any()).Return(nil)
	f.archive.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, j *model.Job) error {
			assert.Equal(t, model.JobStateDelivered, j.State)
			return nil
		})

	require.NoError(t, f.runner.Run(context.Background(), f.jobID))
	assert.Equal(t, model.JobStateDelivered, f.job(t).State)
}

func TestPipelineRunnerStageFailures(t *testing.T) {
	t.Run("research failure", func(t *testing.T) {
		f := newRunnerFixture(t, pipeline.CapStateApproved)
		f.generator.EXPECT().
			Research(gomock.Any(), "coffee history", gomock.Any()).
			Return(nil, errors.New("provider unavailable"))
		f.generator.EXPECT().Draft(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		f.sink.EXPECT().Deliver(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		f.archive.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

		require.NoError(t, f.runner.Run(context.Background(), f.jobID))

		job := f.job(t)
		assert.Equal(t, model.JobStateFailed, job.State)
		assert.Equal(t, "research stage failed", job.FailureReason)
	})

	t.Run("review failure", func(t *testing.T) {
		f := newRunnerFixture(t, pipeline.CapStateApproved)
		f.expectResearchAndDraft()
		f.generator.EXPECT().
			Review(gomock.Any(), "draft v0").
			Return(nil, errors.New("malformed response"))
		f.sink.EXPECT().Deliver(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		f.archive.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

		require.NoError(t, f.runner.Run(context.Background(), f.jobID))

		job := f.job(t)
		assert.Equal(t, model.JobStateFailed, job.State)
		assert.Equal(t, "review stage failed", job.FailureReason)
	})

	t.Run("delivery failure", func(t *testing.T) {
		f := newRunnerFixture(t, pipeline.CapStateApproved)
		f.expectResearchAndDraft()
		f.generator.EXPECT().
			Review(gomock.Any(), "draft v0").
			Return(&model.ReviewResult{Score: 95}, nil)
		f.sink.EXPECT().
			Deliver(gomock.Any(), "writer@example.com", gomock.Any()).
			Return(errors.New("gateway 502"))
		f.archive.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

		require.NoError(t, f.runner.Run(context.Background(), f.jobID))

		job := f.job(t)
		assert.Equal(t, model.JobStateFailed, job.State)
		assert.Equal(t, "delivery failed", job.FailureReason)
	})
}

func TestPipelineRunnerClampsReviewScore(t *testing.T) {
	f := newRunnerFixture(t, pipeline.CapStateApproved)
	f.expectResearchAndDraft()

	f.generator.EXPECT().
		Review(gomock.Any(), "draft v0").
		Return(&model.ReviewResult{Score: 150, Feedback: "over-enthusiastic"}, nil)
	f.sink.EXPECT().Deliver(gomock.Any(), "writer@example.com", gomock.Any()).Return(nil)
	f.archive.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, f.runner.Run(context.Background(), f.jobID))

	job := f.job(t)
	require.Len(t, job.ScoreHistory, 1)
	assert.Equal(t, 100, job.ScoreHistory[0].Score)
	assert.Equal(t, model.JobStateDelivered, job.State)
}

func TestPipelineRunnerRecorderErrorIsNotFatal(t *testing.T) {
	f := newRunnerFixture(t, pipeline.CapStateApproved)
	f.expectResearchAndDraft()

	f.generator.EXPECT().
		Review(gomock.Any(), "draft v0").
		Return(&model.ReviewResult{Score: 95}, nil)
	f.sink.EXPECT().Deliver(gomock.Any(), "writer@example.com", gomock.Any()).Return(nil)
	f.archive.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		Return(errors.New("archive offline"))

	require.NoError(t, f.runner.Run(context.Background(), f.jobID))
	assert.Equal(t, model.JobStateDelivered, f.job(t).State)
}

func TestNewPipelineRunnerValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	policy, err := pipeline.NewLoopPolicy(90, 5)
	require.NoError(t, err)

	valid := PipelineRunnerOptions{
		Generator: mocks.NewMockGenerationService(ctrl),
		Sink:      mocks.NewMockDeliverySink(ctrl),
		Store:     store.NewMemoryStore(),
		Policy:    policy,
	}

	tests := []struct {
		name   string
		mutate func(*PipelineRunnerOptions)
	}{
		{"missing generator", func(o *PipelineRunnerOptions) { o.Generator = nil }},
		{"missing sink", func(o *PipelineRunnerOptions) { o.Sink = nil }},
		{"missing store", func(o *PipelineRunnerOptions) { o.Store = nil }},
		{"missing policy", func(o *PipelineRunnerOptions) { o.Policy = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			_, err := NewPipelineRunner(opts)
			assert.Error(t, err)
		})
	}

	t.Run("valid options", func(t *testing.T) {
		runner, err := NewPipelineRunner(valid)
		require.NoError(t, err)
		assert.NotNil(t, runner)
	})
}
