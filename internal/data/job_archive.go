// Package data provides Postgres-backed persistence for job history.
package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftforge/draftforge/internal/core"
	"github.com/draftforge/draftforge/internal/domain/model"
	apperrors "github.com/draftforge/draftforge/internal/errors"
)

// ErrArchiveNotConfigured is returned when the archive has no pool.
var ErrArchiveNotConfigured = errors.New("job archive not configured")

// JobArchive appends terminal jobs to Postgres so history outlives the
// in-memory job set. The archive is write-mostly; the orchestrator never
// consults it on the hot path.
type JobArchive struct {
	pool *pgxpool.Pool
}

var _ core.JobArchive = (*JobArchive)(nil)

// NewJobArchive constructs an archive over a pgx pool.
func NewJobArchive(pool *pgxpool.Pool) *JobArchive {
	return &JobArchive{pool: pool}
}

// Record upserts one terminal job. A replayed record for the same job id
// overwrites the previous row rather than erroring.
func (a *JobArchive) Record(ctx context.Context, job *model.Job) error {
	if a == nil || a.pool == nil {
		return ErrArchiveNotConfigured
	}
	if job == nil || job.ID == "" {
		return errors.New("job with id is required")
	}
	if !job.State.Terminal() {
		return fmt.Errorf("job %s is not terminal (state %s)", job.ID, job.State)
	}

	history, err := json.Marshal(job.ScoreHistory)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal score history")
	}

	bestScore := 0
	if best, ok := job.BestReview(); ok {
		bestScore = best.Score
	}

	const query = `
		INSERT INTO job_archive (
			id, topic, destination, state, iterations, best_score,
			score_history, failure_reason, created_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id)
		DO UPDATE SET
			state = EXCLUDED.state,
			iterations = EXCLUDED.iterations,
			best_score = EXCLUDED.best_score,
			score_history = EXCLUDED.score_history,
			failure_reason = EXCLUDED.failure_reason,
			finished_at = EXCLUDED.finished_at;`

	_, err = a.pool.Exec(ctx, query,
		job.ID,
		job.Request.Topic,
		job.Request.Destination,
		string(job.State),
		job.Iteration,
		bestScore,
		history,
		nullableString(job.FailureReason),
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal,
				"job_archive table missing, run migrations")
		}
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "insert job_archive for %s", job.ID)
	}
	return nil
}

// ArchivedJob is one row of job history.
type ArchivedJob struct {
	ID            string
	Topic         string
	Destination   string
	State         string
	Iterations    int
	BestScore     int
	FailureReason string
	CreatedAt     time.Time
	FinishedAt    time.Time
}

// ListRecent returns the most recently finished jobs, newest first.
func (a *JobArchive) ListRecent(ctx context.Context, limit int) ([]ArchivedJob, error) {
	if a == nil || a.pool == nil {
		return nil, ErrArchiveNotConfigured
	}
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, topic, destination, state, iterations, best_score,
		       COALESCE(failure_reason, ''), created_at, finished_at
		FROM job_archive
		ORDER BY finished_at DESC
		LIMIT $1`

	rows, err := a.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "query job_archive")
	}
	defer rows.Close()

	var out []ArchivedJob
	for rows.Next() {
		var j ArchivedJob
		if err := rows.Scan(
			&j.ID, &j.Topic, &j.Destination, &j.State, &j.Iterations,
			&j.BestScore, &j.FailureReason, &j.CreatedAt, &j.FinishedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "scan job_archive row")
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "iterate job_archive rows")
	}
	return out, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
