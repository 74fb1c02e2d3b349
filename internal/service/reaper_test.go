package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prepwise/interview-api/config"
	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/domain/model"
)

// stubReaperRepo returns queued counts per operation so batch loops can be
// driven deterministically.
type stubReaperRepo struct {
	mu sync.Mutex

	requeueBatches   []int64
	completedBatches []int64

	requeueErr   error
	completedErr error

	requeueCalls   int
	completedCalls int

	lastRequeueBatchSize int
	lastDeleteParams     core.DeleteOldJobsParams
}

func (s *stubReaperRepo) RequeueExpiredLeases(_ context.Context, batchSize int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requeueCalls++
	s.lastRequeueBatchSize = batchSize
	if s.requeueErr != nil {
		return 0, s.requeueErr
	}
	if len(s.requeueBatches) == 0 {
		return 0, nil
	}
	count := s.requeueBatches[0]
	s.requeueBatches = s.requeueBatches[1:]
	return count, nil
}

func (s *stubReaperRepo) DeleteOldJobs(_ context.Context, params core.DeleteOldJobsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completedCalls++
	s.lastDeleteParams = params
	if s.completedErr != nil {
		return 0, s.completedErr
	}
	if len(s.completedBatches) == 0 {
		return 0, nil
	}
	count := s.completedBatches[0]
	s.completedBatches = s.completedBatches[1:]
	return count, nil
}

var _ core.ReaperRepository = (*stubReaperRepo)(nil)

func testReaperConfig() config.ReaperConfig {
	return config.ReaperConfig{
		Interval:        time.Minute,
		CompletedMaxAge: 24 * time.Hour,
		BatchSize:       100,
	}
}

func TestNewReaperService_RequiresRepo(t *testing.T) {
	t.Parallel()

	if _, err := NewReaperService(ReaperServiceOptions{Config: testReaperConfig()}); err == nil {
		t.Fatal("expected error when repo is missing")
	}
}

func TestReaperService_RunCleanup_BatchesUntilDrained(t *testing.T) {
	t.Parallel()

	repo := &stubReaperRepo{
		requeueBatches:   []int64{100, 100, 40},
		completedBatches: []int64{100, 7},
	}
	svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})
	if err != nil {
		t.Fatalf("NewReaperService: %v", err)
	}

	if cleanupErr := svc.runCleanup(context.Background()); cleanupErr != nil {
		t.Fatalf("runCleanup: %v", cleanupErr)
	}

	// Each operation loops until a zero-count batch confirms the table is drained.
	if repo.requeueCalls != 4 {
		t.Errorf("requeue calls = %d, want 4", repo.requeueCalls)
	}
	if repo.completedCalls != 3 {
		t.Errorf("completed calls = %d, want 3", repo.completedCalls)
	}
	if repo.lastRequeueBatchSize != 100 {
		t.Errorf("requeue batch size = %d, want 100", repo.lastRequeueBatchSize)
	}
	if repo.lastDeleteParams.Status != model.JobStatusCompleted {
		t.Errorf("delete status = %q, want completed", repo.lastDeleteParams.Status)
	}
	if repo.lastDeleteParams.MaxAge != 24*time.Hour {
		t.Errorf("delete max age = %v, want 24h", repo.lastDeleteParams.MaxAge)
	}
}

func TestReaperService_RunCleanup_OnlyDeletesCompletedJobs(t *testing.T) {
	t.Parallel()

	// The reaper's two operations are requeueing expired leases and deleting
	// old completed jobs. Pending jobs waiting out a retry backoff and failed
	// jobs are never part of a cleanup pass.
	repo := &stubReaperRepo{completedBatches: []int64{3}}
	svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})
	if err != nil {
		t.Fatalf("NewReaperService: %v", err)
	}

	if cleanupErr := svc.runCleanup(context.Background()); cleanupErr != nil {
		t.Fatalf("runCleanup: %v", cleanupErr)
	}
	if repo.lastDeleteParams.Status != model.JobStatusCompleted {
		t.Fatalf("delete status = %q, only completed jobs may be deleted", repo.lastDeleteParams.Status)
	}
}

func TestReaperService_RunCleanup_PartialFailureStillRunsBothSteps(t *testing.T) {
	t.Parallel()

	repo := &stubReaperRepo{
		requeueErr:       errors.New("deadlock detected"),
		completedBatches: []int64{3},
	}
	svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})
	if err != nil {
		t.Fatalf("NewReaperService: %v", err)
	}

	cleanupErr := svc.runCleanup(context.Background())
	if cleanupErr == nil {
		t.Fatal("expected cleanup error")
	}

	// The delete step must still have run despite the requeue step failing.
	if repo.completedCalls == 0 {
		t.Error("delete step was skipped after requeue step failure")
	}
}

func TestReaperService_RunCleanup_ContextCancellation(t *testing.T) {
	t.Parallel()

	repo := &stubReaperRepo{requeueErr: context.Canceled}
	svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: testReaperConfig()})
	if err != nil {
		t.Fatalf("NewReaperService: %v", err)
	}

	cleanupErr := svc.runCleanup(context.Background())
	if !errors.Is(cleanupErr, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", cleanupErr)
	}
}

func TestReaperService_Run_StopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := testReaperConfig()
	cfg.Interval = 10 * time.Millisecond

	repo := &stubReaperRepo{}
	svc, err := NewReaperService(ReaperServiceOptions{Repo: repo, Config: cfg})
	if err != nil {
		t.Fatalf("NewReaperService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case runErr := <-done:
		if runErr != nil {
			t.Fatalf("Run returned %v, want nil on cancel", runErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	repo.mu.Lock()
	calls := repo.requeueCalls
	repo.mu.Unlock()
	if calls == 0 {
		t.Error("expected at least one cleanup pass before shutdown")
	}
}
