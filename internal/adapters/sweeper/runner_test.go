package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/draftforge/internal/domain/model"
	"github.com/draftforge/draftforge/internal/store"
)

func TestSweepEvictsExpiredTerminalJobs(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()

	seed := func(state model.JobState, age time.Duration) string {
		t.Helper()
		job := model.NewJob(model.TopicRequest{Topic: "t", Destination: "writer@example.com"})
		job.State = state
		job.UpdatedAt = time.Now().UTC().Add(-age)
		require.NoError(t, memStore.Create(ctx, job))
		return job.ID
	}

	expired := seed(model.JobStateDelivered, 48*time.Hour)
	fresh := seed(model.JobStateFailed, time.Hour)
	active := seed(model.JobStateReviewing, 48*time.Hour)

	r, err := NewRunner(Options{Store: memStore, Retention: 24 * time.Hour})
	require.NoError(t, err)

	r.sweep(ctx)

	_, err = memStore.Get(ctx, expired)
	assert.Error(t, err, "expired terminal job is evicted")
	_, err = memStore.Get(ctx, fresh)
	assert.NoError(t, err, "terminal job inside the retention window survives")
	_, err = memStore.Get(ctx, active)
	assert.NoError(t, err, "active jobs are never evicted")
}

func TestSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()

	r, err := NewRunner(Options{Store: memStore})
	require.NoError(t, err)

	r.sweep(ctx)
	r.sweep(ctx)

	jobs, err := memStore.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestNewRunnerDefaults(t *testing.T) {
	_, err := NewRunner(Options{})
	assert.Error(t, err)

	r, err := NewRunner(Options{Store: store.NewMemoryStore()})
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, r.interval)
	assert.Equal(t, DefaultRetention, r.retention)
}
