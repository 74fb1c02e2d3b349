package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/prepwise/interview-api/internal/data/pgxutil"
	"github.com/prepwise/interview-api/internal/domain/model"
)

// insertJobParams groups parameters for inserting a job within a transaction.
type insertJobParams struct {
	Req        *model.CreateJobRequest
	Payload    []byte
	MaxRetries int
}

// Attempt ceiling applied when CreateJobRequest does not specify one.
const defaultMaxRetries = 10

// SQL used by ReserveNext to atomically reserve the next job.
const reserveNextUpdateSQL = `
  WITH cte AS (
    SELECT id FROM jobs
    WHERE type = $1 AND status = 'pending' AND scheduled_at <= $2
    ORDER BY scheduled_at ASC, created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE jobs j
  SET
    status = 'running',
    started_at = COALESCE(j.started_at, $3),
    lease_expires_at = $4,
    updated_at = $5
  FROM cte
  WHERE j.id = cte.id
  RETURNING j.id, j.type, j.status, j.payload, j.student_id, j.scheduled_at, j.started_at, j.completed_at, j.retry_count, j.max_retries, j.last_error, j.lease_expires_at, j.created_at, j.updated_at`

// Create creates a new job in the database with the given parameters.
func (r *JobRepo) Create(
	ctx context.Context,
	req *model.CreateJobRequest,
) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}

	if validateErr := req.Validate(); validateErr != nil {
		return nil, validateErr
	}

	p, err := r.prepareJobData(req)
	if err != nil {
		return nil, err
	}

	var job *model.Job
	if txErr := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var insertErr error
			job, insertErr = r.insertJobInTx(ctx, tx, p)
			return insertErr
		},
	}); txErr != nil {
		return nil, txErr
	}

	return job, nil
}

// prepareJobData normalizes the payload and retry ceiling for job creation.
func (r *JobRepo) prepareJobData(req *model.CreateJobRequest) (*insertJobParams, error) {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	maxRetries := defaultMaxRetries
	if req.MaxRetries > 0 {
		maxRetries = req.MaxRetries
	}

	return &insertJobParams{
		Req:        req,
		Payload:    payload,
		MaxRetries: maxRetries,
	}, nil
}

// insertJobInTx inserts a job within a pgx.Tx and returns the created job.
// The notification is sent in the same transaction so a listener can never
// observe the wakeup before the row commits.
func (r *JobRepo) insertJobInTx(ctx context.Context, tx pgx.Tx, params *insertJobParams) (*model.Job, error) {
	if params == nil || params.Req == nil {
		return nil, errors.New("insert job params are required")
	}

	query, args := r.buildInsertQuery(params)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	job, collectErr := collectJobFromRows(rows)
	rows.Close()
	if collectErr != nil {
		return nil, fmt.Errorf("collect job: %w", collectErr)
	}

	channel := "job_added_" + string(params.Req.Type)
	if _, execErr := tx.Exec(ctx, `SELECT pg_notify($1::text, $2::text)`, channel, job.ID); execErr != nil {
		return nil, fmt.Errorf("send job notification: %w", execErr)
	}

	return job, nil
}

// buildInsertQuery builds an INSERT statement for a job based on the provided parameters.
func (r *JobRepo) buildInsertQuery(p *insertJobParams) (string, []any) {
	query := `
      INSERT INTO jobs(type, status, payload, student_id, scheduled_at, max_retries)
      VALUES ($1,'pending',$2,$3,$4,$5)
      RETURNING ` + jobColumns

	var scheduledAt time.Time
	if p.Req.ScheduledAt != nil {
		scheduledAt = p.Req.ScheduledAt.UTC()
	} else {
		scheduledAt = r.timeProvider.Now().UTC()
	}

	args := []any{
		p.Req.Type,
		p.Payload,
		p.Req.StudentID,
		scheduledAt,
		p.MaxRetries,
	}
	return query, args
}

// collectJobFromRows collects a single job from pgx rows using pgx v5 helpers.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}

	return job, nil
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	payload                                []byte
	studentID, lastError                   sql.NullString
	startedAt, completedAt, leaseExpiresAt sql.NullTime
}

func (d *jobRowData) scanInto(scanner jobRowScanner, job *model.Job) error {
	return scanner.Scan(
		&job.ID,
		&job.Type,
		&job.Status,
		&d.payload,
		&d.studentID,
		&job.ScheduledAt,
		&d.startedAt,
		&d.completedAt,
		&job.RetryCount,
		&job.MaxRetries,
		&d.lastError,
		&d.leaseExpiresAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
}

func (d *jobRowData) apply(job *model.Job) {
	job.Payload = cloneJSON(d.payload)
	job.StudentID = cloneNullableString(d.studentID)
	job.LastError = cloneNullableString(d.lastError)
	job.StartedAt = cloneNullableTime(d.startedAt)
	job.CompletedAt = cloneNullableTime(d.completedAt)
	job.LeaseExpiresAt = cloneNullableTime(d.leaseExpiresAt)
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var data jobRowData
	if err := data.scanInto(scanner, job); err != nil {
		return nil, err
	}

	data.apply(job)
	return job, nil
}

func cloneJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// Advisory lock namespace for requeueExpired to avoid cross-job-type contention.
const advisoryLockRequeueMajor int64 = 1001

func advisoryLockRequeueMinor(jobType model.JobType) int64 {
	hashValue := xxhash.Sum64String(string(jobType))
	return int64(hashValue & math.MaxInt32)
}

// requeueExpired requeues expired jobs of the given type and returns the number of jobs requeued.
func (r *JobRepo) requeueExpired(ctx context.Context, jobType model.JobType) (int64, error) {
	var rowsAffected int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			minorKey := advisoryLockRequeueMinor(jobType)
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1::integer, $2::integer)", advisoryLockRequeueMajor, minorKey).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				rowsAffected = 0
				return nil
			}

			currentTime := r.timeProvider.Now()
			res, err := tx.ExecContext(ctx, `
          UPDATE jobs
          SET status = 'pending', lease_expires_at = NULL
          WHERE type = $1 AND status = 'running'
            AND lease_expires_at IS NOT NULL
            AND lease_expires_at < $2
        `, jobType, currentTime.UTC())
			if err != nil {
				return fmt.Errorf("requeue expired: %w", err)
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

// ReserveNext reserves the next available job of the given type for processing.
func (r *JobRepo) ReserveNext(
	ctx context.Context,
	jobType model.JobType,
	leaseSeconds int,
) (*model.Job, error) {
	if !jobType.Valid() {
		return nil, fmt.Errorf("invalid job type: %s", jobType)
	}

	if _, err := r.requeueExpired(ctx, jobType); err != nil {
		return nil, fmt.Errorf("requeue expired jobs: %w", err)
	}

	var job *model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{
			Isolation: sql.LevelReadCommitted,
			ReadOnly:  false,
		},
		Fn: func(tx pgx.Tx) error {
			currentTime := r.timeProvider.Now()
			leaseExpiresAt := currentTime.Add(time.Duration(leaseSeconds) * time.Second)

			rows, qerr := tx.Query(
				ctx,
				reserveNextUpdateSQL,
				jobType,
				currentTime.UTC(),
				currentTime.UTC(),
				leaseExpiresAt.UTC(),
				currentTime.UTC(),
			)
			if qerr != nil {
				return fmt.Errorf("reserve job: %w", qerr)
			}
			defer rows.Close()

			j, cerr := collectJobFromRows(rows)
			if errors.Is(cerr, pgx.ErrNoRows) {
				return model.ErrNoJobsAvailable
			}
			if cerr != nil {
				return fmt.Errorf("reserve job: %w", cerr)
			}
			job = j
			return nil
		},
	})
	if err != nil {
		if errors.Is(err, model.ErrNoJobsAvailable) {
			return nil, model.ErrNoJobsAvailable
		}
		return nil, err
	}
	return job, nil
}

// Heartbeat refreshes the lease on a running job.
func (r *JobRepo) Heartbeat(ctx context.Context, jobID string, leaseSeconds int) (bool, error) {
	if leaseSeconds <= 0 {
		return false, errors.New("leaseSeconds must be positive")
	}

	currentTime := r.timeProvider.Now().UTC()
	leaseExpiration := currentTime.Add(time.Duration(leaseSeconds) * time.Second)

	query := `
		UPDATE jobs
		SET lease_expires_at = $2,
		    updated_at = $3
		WHERE id = $1 AND status = 'running'
	`

	res, err := r.DB.ExecContext(ctx, query, jobID, leaseExpiration, currentTime)
	if err != nil {
		return false, fmt.Errorf("heartbeat job: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("heartbeat rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Complete marks a job as completed successfully.
func (r *JobRepo) Complete(ctx context.Context, id string) (bool, error) {
	currentTime := r.timeProvider.Now().UTC()

	query := `
		UPDATE jobs
		SET status = 'completed',
		    completed_at = $2,
		    updated_at = $3,
		    lease_expires_at = NULL,
		    last_error = NULL
		WHERE id = $1 AND status = 'running'
	`

	res, err := r.DB.ExecContext(ctx, query, id, currentTime, currentTime)
	if err != nil {
		return false, fmt.Errorf("failed to complete job: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Fail records a failed attempt for a running job. While attempts remain the
// job returns to 'pending' with an exponentially backed-off scheduled_at;
// once retry_count reaches max_retries the job lands in 'failed' for good.
// Selecting retry_count FOR UPDATE keeps the backoff computation in Go without
// racing a concurrent requeue.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	currentTime := r.timeProvider.Now()

	var updated bool
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var retryCount, maxRetries int
			err := tx.QueryRowContext(ctx, `
				SELECT retry_count, max_retries FROM jobs
				WHERE id = $1 AND status = 'running'
				FOR UPDATE
			`, id).Scan(&retryCount, &maxRetries)
			if errors.Is(err, sql.ErrNoRows) {
				updated = false
				return nil
			}
			if err != nil {
				return fmt.Errorf("lock job for fail: %w", err)
			}

			retryScheduledAt := currentTime.Add(r.backoff.Delay(retryCount))

			if _, err := tx.ExecContext(ctx, `
				UPDATE jobs
				SET
					last_error = $2,
					retry_count = retry_count + 1,
					status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
					completed_at = CASE WHEN retry_count + 1 >= max_retries THEN $3::timestamptz ELSE NULL END,
					lease_expires_at = NULL,
					scheduled_at = CASE WHEN retry_count + 1 >= max_retries THEN scheduled_at
					                    ELSE $4::timestamptz END,
					updated_at = $5
				WHERE id = $1 AND status = 'running'
			`, id, errMsg, currentTime.UTC(), retryScheduledAt.UTC(), currentTime.UTC()); err != nil {
				return fmt.Errorf("fail job: %w", err)
			}

			updated = true
			return nil
		},
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// Stats returns statistics about jobs of the given type in different states.
func (r *JobRepo) Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error) {
	var s model.JobStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')   AS pending,
    count(*) FILTER (WHERE status = 'running')   AS running,
    count(*) FILTER (WHERE status = 'completed') AS completed,
    count(*) FILTER (WHERE status = 'failed')    AS failed
  FROM jobs
  WHERE type = $1
  `, jobType).Scan(
		&s.Pending,
		&s.Running,
		&s.Completed,
		&s.Failed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	return &s, nil
}

// WaitForNotification waits for a PostgreSQL notification indicating new jobs are available.
func (r *JobRepo) WaitForNotification(ctx context.Context, jobType model.JobType) error {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	channel := "job_added_" + string(jobType)
	quoted := pgx.Identifier{channel}.Sanitize()

	if _, execErr := conn.ExecContext(ctx, "LISTEN "+quoted); execErr != nil {
		return fmt.Errorf("listen %s: %w", channel, execErr)
	}
	defer func() {
		if _, execErr := conn.ExecContext(context.Background(), "UNLISTEN "+quoted); execErr != nil {
			_ = execErr
		}
	}()

	return conn.Raw(func(dc any) error {
		sc, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		_, notifyErr := sc.Conn().WaitForNotification(ctx)
		return notifyErr
	})
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE id = $1
		`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		job, err = collectJobFromRows(rows)
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}
