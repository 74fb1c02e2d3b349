package data

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/prepwise/interview-api/internal/domain/job"
)

// Retry schedule applied when RepoConfig does not provide a backoff policy.
const (
	defaultBackoffBase    = 10 * time.Second
	defaultBackoffCeiling = 10 * time.Minute
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Backoff      *job.BackoffPolicy
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for job management.
type JobRepo struct {
	DB           *sql.DB
	backoff      *job.BackoffPolicy
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	backoff := cfg.Backoff
	if backoff == nil {
		backoff = job.MustNewBackoffPolicy(defaultBackoffBase, defaultBackoffCeiling)
	}

	return &JobRepo{
		DB:           db,
		backoff:      backoff,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  type,
  status,
  payload,
  student_id,
  scheduled_at,
  started_at,
  completed_at,
  retry_count,
  max_retries,
  last_error,
  lease_expires_at,
  created_at,
  updated_at
`
