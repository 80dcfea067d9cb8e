package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/draftforge/draftforge/internal/domain/model"
)

// RedisMirror writes snapshots of terminal jobs to Redis with a retention
// TTL, so recent outcomes survive beyond the in-memory eviction sweep and
// can be inspected from other processes. It is a mirror, not the system of
// record: the orchestrator never reads it on the hot path.
type RedisMirror struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisMirror constructs a mirror with the given retention TTL.
func NewRedisMirror(client redis.UniversalClient, retention time.Duration) *RedisMirror {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &RedisMirror{
		client:    client,
		prefix:    "draftforge:job:",
		retention: retention,
	}
}

// Record stores a JSON snapshot of a terminal job keyed by job id.
func (m *RedisMirror) Record(ctx context.Context, job *model.Job) error {
	if job == nil || job.ID == "" {
		return errors.New("job with id is required")
	}
	if !job.State.Terminal() {
		return fmt.Errorf("job %s is not terminal (state %s)", job.ID, job.State)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job snapshot: %w", err)
	}
	if err := m.client.Set(ctx, m.prefix+job.ID, data, m.retention).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get loads a mirrored snapshot, returning (nil, nil) when the key expired
// or never existed.
func (m *RedisMirror) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := m.client.Get(ctx, m.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job snapshot: %w", err)
	}
	return &job, nil
}
