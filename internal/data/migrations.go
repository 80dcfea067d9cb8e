package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const jobArchiveSchema = `
CREATE TABLE IF NOT EXISTS job_archive (
	id             TEXT PRIMARY KEY,
	topic          TEXT NOT NULL,
	destination    TEXT NOT NULL,
	state          TEXT NOT NULL,
	iterations     INT NOT NULL DEFAULT 0,
	best_score     INT NOT NULL DEFAULT 0,
	score_history  JSONB NOT NULL DEFAULT '[]'::jsonb,
	failure_reason TEXT,
	created_at     TIMESTAMPTZ NOT NULL,
	finished_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_job_archive_finished_at
	ON job_archive (finished_at DESC);
`

// Migrate creates the archive schema if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return ErrArchiveNotConfigured
	}
	if _, err := pool.Exec(ctx, jobArchiveSchema); err != nil {
		return fmt.Errorf("apply job_archive schema: %w", err)
	}
	return nil
}
