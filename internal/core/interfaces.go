package core

import (
	"context"
	"time"

	"github.com/prepwise/interview-api/internal/domain/auth"
	"github.com/prepwise/interview-api/internal/domain/model"
)

// This file contains repository and gateway interface definitions (ports in
// hexagonal architecture). Service implementations should depend on these
// interfaces, not concrete implementations.

// JobRepository defines the interface for durable job queue operations.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	ReserveNext(ctx context.Context, jobType model.JobType, leaseSeconds int) (*model.Job, error)
	WaitForNotification(ctx context.Context, jobType model.JobType) error
	Heartbeat(ctx context.Context, jobID string, leaseSeconds int) (bool, error)
	Complete(ctx context.Context, id string) (bool, error)
	Fail(ctx context.Context, id, errMsg string) (bool, error)
	Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error)
}

// DeleteOldJobsParams groups parameters for DeleteOldJobs to keep param count ≤3.
type DeleteOldJobsParams struct {
	Status    model.JobStatus
	MaxAge    time.Duration
	BatchSize int
}

// ReaperRepository defines the interface for job cleanup operations.
type ReaperRepository interface {
	// RequeueExpiredLeases returns running jobs whose lease has expired to
	// pending so they can be reserved again after a worker crash. Pending
	// jobs are never touched; retries and backoff stay with Fail.
	// Returns the number of jobs requeued.
	RequeueExpiredLeases(ctx context.Context, batchSize int) (int64, error)

	// DeleteOldJobs deletes jobs with the given status older than maxAge.
	// Failed jobs are never reaped; they are retained for manual inspection.
	DeleteOldJobs(ctx context.Context, params DeleteOldJobsParams) (int64, error)
}

// InterviewRepository defines the interface for interview record operations.
type InterviewRepository interface {
	// CreateFromJob persists a scored interview, upserting on the originating
	// job ID so a redelivered job never produces a duplicate record.
	// Returns false when the record already existed.
	CreateFromJob(ctx context.Context, req *model.CreateInterviewRequest) (bool, error)
	GetDetail(ctx context.Context, interviewID, studentID string) (*model.Interview, error)
	ListHistory(ctx context.Context, opts model.InterviewListOptions) ([]*model.InterviewSummary, error)
	MarkViewed(ctx context.Context, interviewID, studentID string) (bool, error)
	UnviewedCount(ctx context.Context, studentID string) (int, error)
	DashboardStats(ctx context.Context, studentID string) (*model.DashboardStats, error)
}

// CacheRepository defines the interface for the Redis-backed cache.
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Health(ctx context.Context) error
}

// SessionStore resolves opaque session IDs to session records.
type SessionStore interface {
	Get(ctx context.Context, id string) (auth.Session, error)
	Save(ctx context.Context, sess auth.Session) error
	Delete(ctx context.Context, id string) error
}

// ChatRequest is a single blocking LLM text completion request.
type ChatRequest struct {
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatCompleter defines the gateway to the LLM provider. Implementations must
// honour ctx cancellation so a hung provider call cannot pin a worker slot.
type ChatCompleter interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}
