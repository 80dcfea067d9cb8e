// Package store provides implementations of the core.JobStore port.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/draftforge/draftforge/internal/core"
	"github.com/draftforge/draftforge/internal/domain/model"
	apperrors "github.com/draftforge/draftforge/internal/errors"
)

// MemoryStore keeps the job set in an id-keyed map guarded by a single
// mutex. All reads return deep-copied snapshots; the stored job is mutated
// only through Update, which runs the mutation under the lock.
type MemoryStore struct {
	mu    sync.RWMutex
	jobs  map[string]*model.Job
	order []string // insertion order, newest appended last
}

var _ core.JobStore = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*model.Job),
	}
}

// Create inserts a new job. The store keeps its own copy so the caller
// cannot mutate shared state afterwards.
func (s *MemoryStore) Create(_ context.Context, job *model.Job) error {
	if job == nil || job.ID == "" {
		return apperrors.Validation("job with id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return apperrors.Validationf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	s.order = append(s.order, job.ID)
	return nil
}

// Get returns a snapshot of the job or a not_found error.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}
	return job.Clone(), nil
}

// Update applies mutate to the stored job under the lock and returns a
// snapshot of the result. If mutate returns an error the job is untouched.
func (s *MemoryStore) Update(
	_ context.Context,
	id string,
	mutate func(*model.Job) error,
) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", id)
	}

	draft := job.Clone()
	if err := mutate(draft); err != nil {
		return nil, err
	}
	draft.UpdatedAt = time.Now().UTC()
	s.jobs[id] = draft
	return draft.Clone(), nil
}

// List returns snapshots ordered most recently created first.
func (s *MemoryStore) List(_ context.Context) ([]*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Job, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if job, ok := s.jobs[s.order[i]]; ok {
			out = append(out, job.Clone())
		}
	}
	return out, nil
}

// EvictTerminalBefore removes terminal jobs whose last update predates the
// cutoff. Active jobs are never evicted regardless of age.
func (s *MemoryStore) EvictTerminalBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	remaining := s.order[:0]
	for _, id := range s.order {
		job, ok := s.jobs[id]
		if !ok {
			continue
		}
		if job.State.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			evicted++
			continue
		}
		remaining = append(remaining, id)
	}
	s.order = remaining
	return evicted, nil
}

// Stats counts jobs per state.
func (s *MemoryStore) Stats(_ context.Context) (map[model.JobState]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[model.JobState]int)
	for _, job := range s.jobs {
		stats[job.State]++
	}
	return stats, nil
}
