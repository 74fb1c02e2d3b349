// Package feedbackrunner pulls feedback jobs off the queue and scores them.
package feedbackrunner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/data"
	"github.com/prepwise/interview-api/internal/domain/model"
	"github.com/prepwise/interview-api/internal/observability/metrics"
	"github.com/prepwise/interview-api/internal/observability/statsd"
	"github.com/prepwise/interview-api/internal/service"
)

// HandlerFunc processes a job and returns error to indicate failure (which will be retried per policy).
type HandlerFunc func(ctx context.Context, job *model.Job) error

// RunnerOptions configures the feedback runner adapter.
type RunnerOptions struct {
	DB     *sql.DB
	Logger *slog.Logger
	Chat   core.ChatCompleter

	// Job processing settings
	Lease       time.Duration // per-job lease duration; defaults to 120s
	Concurrency int           // number of worker goroutines; defaults to 3
	// HeartbeatInterval is how often a worker extends the lease while a job
	// is in flight. Defaults to a quarter of the lease.
	HeartbeatInterval time.Duration

	// Optional dependency injections (useful for tests/decoupling)
	JobsRepo       core.JobRepository
	InterviewsRepo core.InterviewRepository
	Metrics        statsd.Sink
}

// Runner pulls jobs and executes them using registered handlers.
type Runner struct {
	jobs      *service.JobService
	feedback  *service.FeedbackService
	logger    *slog.Logger
	lease     time.Duration
	heartbeat time.Duration
	workers   int
	handlers  map[model.JobType]HandlerFunc
	metrics   statsd.Sink
}

// NewRunner wires repositories/services and constructs a feedback runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DB == nil && opts.JobsRepo == nil {
		return nil, errors.New("either DB or JobsRepo must be provided")
	}
	if opts.Chat == nil {
		return nil, errors.New("ChatCompleter is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lease := opts.Lease
	if lease <= 0 {
		lease = 120 * time.Second
	}
	heartbeat := opts.HeartbeatInterval
	if heartbeat <= 0 || heartbeat >= lease {
		heartbeat = lease / 4
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 3
	}

	jobsRepo := opts.JobsRepo
	if jobsRepo == nil {
		jobsRepo = data.NewJobRepo(opts.DB, data.RepoConfig{Logger: logger})
	}
	jobSvc, err := service.NewJobService(service.JobServiceOptions{
		Repo:         jobsRepo,
		DefaultLease: lease,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create job service: %w", err)
	}

	interviewsRepo := opts.InterviewsRepo
	if interviewsRepo == nil {
		interviewsRepo = data.NewInterviewRepo(opts.DB, data.InterviewRepoConfig{Logger: logger})
	}
	feedbackSvc, err := service.NewFeedbackService(service.FeedbackServiceOptions{
		Interviews: interviewsRepo,
		Chat:       opts.Chat,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create feedback service: %w", err)
	}

	r := &Runner{
		jobs:      jobSvc,
		feedback:  feedbackSvc,
		logger:    logger,
		lease:     lease,
		heartbeat: heartbeat,
		workers:   workers,
		handlers:  make(map[model.JobType]HandlerFunc),
		metrics:   opts.Metrics,
	}
	r.handlers[model.JobTypeFeedback] = r.handleFeedbackJob
	return r, nil
}

// Run starts worker goroutines and processes jobs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting feedback runner",
		"type", model.JobTypeFeedback,
		"workers", r.workers,
		"lease", r.lease,
	)

	// Derive a cancellable context that we can signal on first fatal error
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Subscribe for notifications for the job type we process
	unsub, ch := r.jobs.Subscribe(model.JobTypeFeedback)
	defer unsub()
	defer r.jobs.StopAllListeners()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	for range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.workerLoop(ctx, ch); err != nil {
				// first error wins, cancels all workers
				select {
				case errCh <- err:
					cancel()
				default:
				}
			}
		}()
	}

	wg.Wait()

	var err error
	select {
	case err = <-errCh:
	default:
		err = ctx.Err()
	}
	// Graceful shutdown is not a failure.
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) workerLoop(ctx context.Context, notify <-chan struct{}) error {
	for ctx.Err() == nil {
		job, err := r.jobs.ReserveNext(ctx, model.JobTypeFeedback, r.lease)
		switch {
		case err == nil:
			if job != nil {
				r.processJob(ctx, job)
			}
		case errors.Is(err, model.ErrNoJobsAvailable):
			if !r.waitForNotify(ctx, notify) {
				return nil
			}
		default:
			return fmt.Errorf("reserve next: %w", err)
		}
	}
	return ctx.Err()
}

func (r *Runner) waitForNotify(ctx context.Context, notify <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return false
	case <-notify:
		return true
	}
}

func (r *Runner) processJob(ctx context.Context, job *model.Job) {
	start := time.Now()
	emit := func(transition, result string, err error) {
		metrics.EmitJobLifecycle(r.metrics, metrics.JobMetric{
			JobType:    string(job.Type),
			Transition: transition,
			Result:     result,
			Duration:   time.Since(start),
			Err:        err,
		})
	}

	h, ok := r.handlers[job.Type]
	if !ok {
		err := fmt.Errorf("no handler for job type %s", job.Type)
		r.fail(ctx, job.ID, err.Error())
		emit("failed", metrics.ResultError, err)
		return
	}

	stopHeartbeat := r.startHeartbeat(ctx, job.ID)
	err := h(ctx, job)
	stopHeartbeat()

	if err != nil {
		r.fail(ctx, job.ID, err.Error())
		emit("failed", metrics.ResultError, err)
		return
	}
	if completed, err := r.jobs.Complete(ctx, job.ID); err != nil {
		r.logger.ErrorContext(ctx, "complete job error", "job_id", job.ID, "error", err)
		emit("completed", metrics.ResultError, err)
	} else {
		result := metrics.ResultNoop
		if completed {
			result = metrics.ResultSuccess
		}
		emit("completed", result, nil)
	}
}

// startHeartbeat extends the job lease periodically while the handler runs.
// The returned stop function must be called exactly once.
func (r *Runner) startHeartbeat(ctx context.Context, jobID string) func() {
	hbCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				if _, err := r.jobs.Heartbeat(hbCtx, jobID, r.lease); err != nil {
					r.logger.WarnContext(hbCtx, "job heartbeat failed", "job_id", jobID, "error", err)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (r *Runner) fail(ctx context.Context, id, msg string) {
	if _, err := r.jobs.Fail(ctx, id, msg); err != nil {
		r.logger.ErrorContext(ctx, "fail job error", "job_id", id, "error", err)
	}
}

// handleFeedbackJob scores one interview submission.
func (r *Runner) handleFeedbackJob(ctx context.Context, job *model.Job) error {
	return r.feedback.Process(ctx, job)
}
