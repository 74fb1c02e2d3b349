package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prepwise/interview-api/internal/core"
	domainjob "github.com/prepwise/interview-api/internal/domain/job"
	"github.com/prepwise/interview-api/internal/domain/model"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo            core.JobRepository        // Required: job repository
	DefaultLease    time.Duration             // Required: default lease duration for jobs
	Logger          *slog.Logger              // Optional: structured logger
	LeasePolicy     *domainjob.LeasePolicy    // Optional: override default lease policy
	Notifier        domainjob.Notifier        // Optional: custom job availability notifier
	NotifierOptions domainjob.NotifierOptions // Optional: configure default notifier behaviour
}

// JobService provides business logic for job operations including pub/sub notifications.
//
// This service manages:
// - job creation and status lookups
// - job reservation and lease management
// - pub/sub notification system for job availability
// - graceful shutdown of notification listeners.
type JobService struct {
	repo        core.JobRepository
	leasePolicy *domainjob.LeasePolicy
	notifier    domainjob.Notifier
	logger      *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	var leasePolicy *domainjob.LeasePolicy
	switch {
	case opts.LeasePolicy != nil:
		leasePolicy = opts.LeasePolicy
	case opts.DefaultLease > 0:
		var err error
		leasePolicy, err = domainjob.NewLeasePolicy(opts.DefaultLease)
		if err != nil {
			return nil, fmt.Errorf("create lease policy: %w", err)
		}
	default:
		return nil, errors.New("DefaultLease must be positive")
	}

	notifier := opts.Notifier
	if notifier == nil {
		options := opts.NotifierOptions
		if options.Waiter == nil {
			options.Waiter = opts.Repo
		}
		var err error
		notifier, err = domainjob.NewNotifier(options)
		if err != nil {
			return nil, fmt.Errorf("create job notifier: %w", err)
		}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
		logger.Debug("JobService initialized",
			"default_lease", leasePolicy.Default(),
		)
	}

	return &JobService{
		repo:        opts.Repo,
		leasePolicy: leasePolicy,
		notifier:    notifier,
		logger:      logger,
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// Create creates a new job with the given request parameters.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	job, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "job created",
			"id", job.ID,
			"type", job.Type,
			"status", job.Status,
		)
	}

	return job, nil
}

// ReserveNext reserves the next available job of the given type for processing.
func (s *JobService) ReserveNext(
	ctx context.Context,
	jobType model.JobType,
	lease time.Duration,
) (*model.Job, error) {
	decision := s.leasePolicy.Resolve(lease)
	if decision.Clamped() && s.logger != nil {
		s.logger.DebugContext(ctx, "clamped sub-second lease duration to 1 second",
			"requested_duration", decision.Requested,
			"job_type", jobType)
	}

	job, err := s.repo.ReserveNext(ctx, jobType, decision.Seconds)
	if err != nil {
		return nil, fmt.Errorf("reserve next job: %w", err)
	}

	if s.logger != nil && job != nil {
		s.logger.DebugContext(ctx, "job reserved",
			"id", job.ID,
			"type", jobType,
			"lease_seconds", decision.Seconds,
		)
	}

	return job, nil
}

// Subscribe creates a subscription for job notifications of the given type.
// Returns an unsubscribe function and a channel that receives notifications.
func (s *JobService) Subscribe(jobType model.JobType) (func(), <-chan struct{}) {
	if s.notifier == nil {
		ch := make(chan struct{})
		close(ch)
		return func() {}, ch
	}
	return s.notifier.Subscribe(jobType)
}

// WaitForNotification waits for a notification indicating new jobs are available.
func (s *JobService) WaitForNotification(ctx context.Context, jobType model.JobType) error {
	return s.repo.WaitForNotification(ctx, jobType)
}

// Heartbeat extends the lease on a job to indicate it's still being processed.
func (s *JobService) Heartbeat(ctx context.Context, id string, extend time.Duration) (bool, error) {
	decision := s.leasePolicy.Resolve(extend)
	if decision.Clamped() && s.logger != nil {
		s.logger.DebugContext(ctx, "clamped sub-second heartbeat duration to 1 second",
			"requested_duration", decision.Requested,
			"job_id", id)
	}

	updated, err := s.repo.Heartbeat(ctx, id, decision.Seconds)
	if err != nil {
		return false, fmt.Errorf("heartbeat job %s: %w", id, err)
	}

	if s.logger != nil && updated {
		s.logger.DebugContext(ctx, "job heartbeat updated", "id", id, "extend_seconds", decision.Seconds)
	}

	return updated, nil
}

// Complete marks a job as completed successfully.
func (s *JobService) Complete(ctx context.Context, id string) (bool, error) {
	completed, err := s.repo.Complete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("complete job %s: %w", id, err)
	}

	if s.logger != nil && completed {
		s.logger.DebugContext(ctx, "job completed", "id", id)
	}

	return completed, nil
}

// Fail records a failed attempt with the given error message. The repository
// decides whether the job retries or lands in the failed state.
func (s *JobService) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	if errMsg == "" {
		return false, errors.New("error message required")
	}

	failed, err := s.repo.Fail(ctx, id, errMsg)
	if err != nil {
		return false, fmt.Errorf("fail job %s: %w", id, err)
	}

	if s.logger != nil && failed {
		s.logger.DebugContext(ctx, "job failed", "id", id, "error", errMsg)
	}

	return failed, nil
}

// Stats returns statistics about jobs of the given type in different states.
func (s *JobService) Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error) {
	stats, err := s.repo.Stats(ctx, jobType)
	if err != nil {
		return nil, fmt.Errorf("get job stats for type %s: %w", jobType, err)
	}
	return stats, nil
}

// GetStatus returns the status information for a specific job.
func (s *JobService) GetStatus(ctx context.Context, id string) (*model.JobStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	return &model.JobStatusResponse{
		Status:      job.Status,
		RetryCount:  job.RetryCount,
		CompletedAt: job.CompletedAt,
		LastError:   job.LastError,
	}, nil
}

// GetByID returns a job by its ID.
func (s *JobService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job by id %s: %w", id, err)
	}
	return job, nil
}

// StopAllListeners stops all active job notification listeners.
// This should be called during graceful shutdown to clean up goroutines.
func (s *JobService) StopAllListeners() {
	if s.logger != nil {
		s.logger.Info("stopping all job listeners")
	}

	if s.notifier != nil {
		s.notifier.StopAll()
	}
}
