package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/data/pgxutil"
)

// Advisory lock namespace for reaper operations.
// Using two-arg pg_try_advisory_xact_lock(major, minor) for proper namespacing.
// Major key 1000 is reserved for reaper operations.
const (
	advisoryLockReaperMajor   = 1000
	advisoryLockReaperRequeue = 1 // minor key for RequeueExpiredLeases
	advisoryLockReaperDelete  = 2 // minor key for DeleteOldJobs
)

// RequeueExpiredLeases returns running jobs whose lease has expired to pending
// so another worker can reserve them. ReserveNext does the same lazily per job
// type; this pass covers jobs of types with no active runner left to reserve.
// Pending jobs are left alone: a job waiting out its backoff must reach its
// retry ceiling through Fail, never through the reaper.
// Processes up to batchSize jobs per call to prevent long locks and I/O spikes.
// Uses advisory locks to prevent concurrent reaper instances from conflicting.
// Returns the number of jobs requeued.
func (r *JobRepo) RequeueExpiredLeases(ctx context.Context, batchSize int) (int64, error) {
	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockReaperMajor, advisoryLockReaperRequeue).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			currentTime := r.timeProvider.Now()

			res, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET status = 'pending',
					lease_expires_at = NULL,
					updated_at = $1
				WHERE id IN (
					SELECT id FROM jobs
					WHERE status = 'running'
					  AND lease_expires_at IS NOT NULL
					  AND lease_expires_at < $1
					ORDER BY lease_expires_at
					LIMIT $2
				)
			`, currentTime.UTC(), batchSize)
			if err != nil {
				return fmt.Errorf("requeue expired leases: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}

// DeleteOldJobs deletes jobs with the given status older than maxAge.
// Processes up to batchSize jobs per call to prevent long locks and I/O spikes.
// Uses advisory locks to prevent concurrent reaper instances from conflicting.
// Returns the number of jobs deleted.
func (r *JobRepo) DeleteOldJobs(ctx context.Context, params core.DeleteOldJobsParams) (int64, error) {
	if !params.Status.Valid() {
		return 0, fmt.Errorf("invalid job status: %s", params.Status)
	}

	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)", advisoryLockReaperMajor, advisoryLockReaperDelete).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			currentTime := r.timeProvider.Now()
			cutoffTime := currentTime.Add(-params.MaxAge)

			res, err := tx.ExecContext(ctx, `
				DELETE FROM jobs
				WHERE id IN (
					SELECT id FROM jobs
					WHERE status = $1
					  AND (completed_at < $2 OR (completed_at IS NULL AND updated_at < $2))
					ORDER BY COALESCE(completed_at, updated_at)
					LIMIT $3
				)
			`, params.Status, cutoffTime.UTC(), params.BatchSize)
			if err != nil {
				return fmt.Errorf("delete old jobs: %w", err)
			}

			ra, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			rowsAffected = ra
			return nil
		},
	})
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}
