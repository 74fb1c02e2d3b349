package feedbackrunner

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/domain/model"
	"github.com/prepwise/interview-api/internal/mocks"
)

// fakeQueue is an in-memory JobRepository that hands out queued jobs once and
// signals completions and failures on channels.
type fakeQueue struct {
	mu    sync.Mutex
	queue []*model.Job

	completed chan string
	failed    chan string
}

func newFakeQueue(jobs ...*model.Job) *fakeQueue {
	return &fakeQueue{
		queue:     jobs,
		completed: make(chan string, 8),
		failed:    make(chan string, 8),
	}
}

func (f *fakeQueue) Create(_ context.Context, _ *model.CreateJobRequest) (*model.Job, error) {
	return nil, nil
}

func (f *fakeQueue) GetByID(_ context.Context, _ string) (*model.Job, error) {
	return nil, nil
}

func (f *fakeQueue) ReserveNext(_ context.Context, _ model.JobType, _ int) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, model.ErrNoJobsAvailable
	}
	job := f.queue[0]
	f.queue = f.queue[1:]
	return job, nil
}

func (f *fakeQueue) WaitForNotification(ctx context.Context, _ model.JobType) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeQueue) Heartbeat(_ context.Context, _ string, _ int) (bool, error) {
	return true, nil
}

func (f *fakeQueue) Complete(_ context.Context, id string) (bool, error) {
	f.completed <- id
	return true, nil
}

func (f *fakeQueue) Fail(_ context.Context, id, _ string) (bool, error) {
	f.failed <- id
	return true, nil
}

func (f *fakeQueue) Stats(_ context.Context, _ model.JobType) (*model.JobStats, error) {
	return &model.JobStats{}, nil
}

var _ core.JobRepository = (*fakeQueue)(nil)

// recordingInterviews counts persisted records.
type recordingInterviews struct {
	mu      sync.Mutex
	created []string
}

func (r *recordingInterviews) CreateFromJob(_ context.Context, req *model.CreateInterviewRequest) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, req.JobID)
	return true, nil
}

func (r *recordingInterviews) GetDetail(_ context.Context, _, _ string) (*model.Interview, error) {
	return nil, nil
}

func (r *recordingInterviews) ListHistory(
	_ context.Context,
	_ model.InterviewListOptions,
) ([]*model.InterviewSummary, error) {
	return nil, nil
}

func (r *recordingInterviews) MarkViewed(_ context.Context, _, _ string) (bool, error) {
	return true, nil
}

func (r *recordingInterviews) UnviewedCount(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (r *recordingInterviews) DashboardStats(_ context.Context, _ string) (*model.DashboardStats, error) {
	return &model.DashboardStats{}, nil
}

var _ core.InterviewRepository = (*recordingInterviews)(nil)

func queuedFeedbackJob(t *testing.T, id string) *model.Job {
	t.Helper()
	payload := model.FeedbackJobPayload{
		StudentID: "student-1",
		Payload: model.InterviewSubmission{
			InterviewType:     model.InterviewTypeBasic,
			Duration:          "10:00",
			NumberOfQuestions: 1,
			Conversation: []model.ConversationTurn{
				{AI: "Tell me about yourself.", Candidate: "Sure..."},
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &model.Job{ID: id, Type: model.JobTypeFeedback, Status: model.JobStatusRunning, Payload: raw}
}

const runnerScoringResponse = "```json\n" + `{
  "scores": {"grammar": 75, "experience": 75, "skills": 75, "relevance": 75, "fillerCount": 0},
  "areasOfImprovements": ["N/A"],
  "feedbacks": ["Solid intro"]
}` + "\n```"

func TestRunner_ProcessesQueuedJob(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatCompleter(ctrl)
	chat.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(runnerScoringResponse, nil)

	queue := newFakeQueue(queuedFeedbackJob(t, "job-1"))
	interviews := &recordingInterviews{}

	runner, err := NewRunner(RunnerOptions{
		JobsRepo:       queue,
		InterviewsRepo: interviews,
		Chat:           chat,
		Concurrency:    2,
		Lease:          30 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx)
	}()

	select {
	case id := <-queue.completed:
		if id != "job-1" {
			t.Errorf("completed job = %q, want job-1", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not completed")
	}

	cancel()
	select {
	case runErr := <-done:
		if runErr != nil {
			t.Fatalf("Run returned %v, want nil on cancel", runErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}

	interviews.mu.Lock()
	defer interviews.mu.Unlock()
	if len(interviews.created) != 1 || interviews.created[0] != "job-1" {
		t.Errorf("created records = %v, want [job-1]", interviews.created)
	}
}

func TestRunner_FailsJobWithBadPayload(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// The handler must fail before the model is ever consulted.
	chat := mocks.NewMockChatCompleter(ctrl)

	bad := &model.Job{ID: "job-bad", Type: model.JobTypeFeedback, Payload: json.RawMessage(`{broken`)}
	queue := newFakeQueue(bad)

	runner, err := NewRunner(RunnerOptions{
		JobsRepo:       queue,
		InterviewsRepo: &recordingInterviews{},
		Chat:           chat,
		Concurrency:    1,
	})
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx)
	}()

	select {
	case id := <-queue.failed:
		if id != "job-bad" {
			t.Errorf("failed job = %q, want job-bad", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not failed")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestNewRunner_Validation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	chat := mocks.NewMockChatCompleter(ctrl)

	if _, err := NewRunner(RunnerOptions{Chat: chat}); err == nil {
		t.Error("expected error without DB or JobsRepo")
	}
	if _, err := NewRunner(RunnerOptions{JobsRepo: newFakeQueue(), InterviewsRepo: &recordingInterviews{}}); err == nil {
		t.Error("expected error without ChatCompleter")
	}
}
