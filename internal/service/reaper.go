package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prepwise/interview-api/config"
	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/domain/model"
	obserrors "github.com/prepwise/interview-api/internal/observability/errors"
	"github.com/prepwise/interview-api/internal/observability/metrics"
	"github.com/prepwise/interview-api/internal/observability/statsd"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.ReaperRepository // Required: reaper repository
	Config  config.ReaperConfig   // Required: reaper configuration
	Logger  *slog.Logger          // Optional: structured logger
	Metrics statsd.Sink           // Optional: metrics sink (StatsD-compatible)
}

// ReaperService provides job cleanup operations.
//
// This service manages:
// - Requeueing running jobs whose lease expired (crash recovery).
// - Deleting old completed jobs to prevent database bloat.
//
// Pending jobs are never touched: a job waiting out its retry backoff must
// exhaust its attempts through Fail. Failed jobs are deliberately left in
// place; they are the audit trail for exhausted retries and are cleaned up
// manually.
type ReaperService struct {
	repo    core.ReaperRepository
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReaperRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"completed_max_age", opts.Config.CompletedMaxAge,
		)
	}

	return &ReaperService{
		repo:    opts.Repo,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// It performs cleanup operations at the configured interval.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run cleanup immediately after jitter
	if err := s.runCleanup(ctx); err != nil {
		s.logCleanupError(err, "initial cleanup")
	}

	return s.runLoop(ctx, ticker)
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

// runLoop runs the cleanup loop until context is cancelled.
func (s *ReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.runCleanup(ctx); err != nil {
				s.logCleanupError(err, "cleanup")
				// Continue running despite errors
			}
		}
	}
}

// runCleanup performs all cleanup operations.
func (s *ReaperService) runCleanup(ctx context.Context) error {
	start := time.Now()

	var errs []error
	m := cleanupMetrics{}

	m.RequeuedCount, m.RequeuedErr = s.requeueExpiredLeases(ctx)
	if m.RequeuedErr != nil {
		errs = append(errs, fmt.Errorf("requeue expired leases: %w", m.RequeuedErr))
	}

	m.CompletedCount, m.CompletedErr = s.deleteOldCompletedJobs(ctx)
	if m.CompletedErr != nil {
		errs = append(errs, fmt.Errorf("delete old completed jobs: %w", m.CompletedErr))
	}

	m.Elapsed = time.Since(start)
	s.emitCleanupMetrics(m)

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if isContextCancellation(joined) {
			return context.Canceled
		}
		return fmt.Errorf("cleanup failed: %w", joined)
	}

	return nil
}

// requeueExpiredLeases returns running jobs with expired leases to pending.
// Loops until no more rows are affected to handle large datasets in batches.
func (s *ReaperService) requeueExpiredLeases(ctx context.Context) (int64, error) {
	var totalCount int64
	for {
		count, err := s.repo.RequeueExpiredLeases(ctx, s.config.BatchSize)
		if err != nil {
			return totalCount, err
		}
		totalCount += count
		if count == 0 {
			break
		}
		if ctx.Err() != nil {
			return totalCount, ctx.Err()
		}
	}

	if totalCount > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "requeued jobs with expired leases",
			"count", totalCount,
		)
	}

	return totalCount, nil
}

// deleteOldCompletedJobs deletes completed jobs older than the configured max age.
// Loops until no more rows are affected to handle large datasets in batches.
func (s *ReaperService) deleteOldCompletedJobs(ctx context.Context) (int64, error) {
	var totalCount int64
	for {
		count, err := s.repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
			Status:    model.JobStatusCompleted,
			MaxAge:    s.config.CompletedMaxAge,
			BatchSize: s.config.BatchSize,
		})
		if err != nil {
			return totalCount, err
		}
		totalCount += count
		if count == 0 {
			break
		}
		if ctx.Err() != nil {
			return totalCount, ctx.Err()
		}
	}

	if totalCount > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "deleted old completed jobs",
			"count", totalCount,
			"max_age", s.config.CompletedMaxAge,
		)
	}

	return totalCount, nil
}

type cleanupMetrics struct {
	RequeuedCount  int64
	RequeuedErr    error
	CompletedCount int64
	CompletedErr   error
	Elapsed        time.Duration
}

func (s *ReaperService) emitCleanupMetrics(m cleanupMetrics) {
	if s.metrics == nil {
		return
	}

	totalCount := m.RequeuedCount + m.CompletedCount
	firstErr := firstError(m.RequeuedErr, m.CompletedErr)

	result := metrics.ResultSuccess
	if firstErr != nil {
		result = metrics.ResultError
	} else if totalCount == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		"result": result,
	}

	if firstErr != nil {
		if class := obserrors.Classify(firstErr); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reaper.cleanup", 1, tags)

	if m.Elapsed > 0 {
		s.metrics.Timing("reaper.cleanup_duration", m.Elapsed, metrics.CloneTags(tags))
	}

	s.emitCleanupOperationMetric("requeue_expired", m.RequeuedCount, m.RequeuedErr)
	s.emitCleanupOperationMetric("delete_completed", m.CompletedCount, m.CompletedErr)

	if firstErr == nil {
		s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (s *ReaperService) emitCleanupOperationMetric(operation string, count int64, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	} else if count == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		"operation": operation,
		"result":    result,
	}

	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reaper.cleanup_operation", 1, tags)

	if err == nil && count > 0 {
		s.metrics.Count("reaper.jobs_processed", count, metrics.CloneTags(tags))
	}
}

func (s *ReaperService) logCleanupError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
