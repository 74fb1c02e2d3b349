package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/domain/model"
	apperrors "github.com/prepwise/interview-api/internal/errors"
	"github.com/prepwise/interview-api/internal/llm"
	"github.com/prepwise/interview-api/internal/mocks"
)

// memoryCache is a map-backed CacheRepository; TTLs are recorded, not enforced.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	gets    int
	sets    int
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.entries[key], nil
}

func (c *memoryCache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok, nil
}

func (c *memoryCache) SetIfNotExists(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return false, nil
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return true, nil
}

func (c *memoryCache) Health(context.Context) error { return nil }

var _ core.CacheRepository = (*memoryCache)(nil)

type interviewFixture struct {
	svc      *InterviewService
	repo     *stubInterviewRepo
	jobsRepo *stubJobRepo
	cache    *memoryCache
	chat     *mocks.MockChatCompleter
}

func newInterviewFixture(t *testing.T, ctrl *gomock.Controller) *interviewFixture {
	t.Helper()

	repo := newStubInterviewRepo()
	jobsRepo := newStubJobRepo()
	cache := newMemoryCache()
	chat := mocks.NewMockChatCompleter(ctrl)

	svc, err := NewInterviewService(InterviewServiceOptions{
		Interviews: repo,
		Jobs:       newTestJobService(t, jobsRepo),
		Chat:       chat,
		Cache:      cache,
	})
	if err != nil {
		t.Fatalf("NewInterviewService: %v", err)
	}

	return &interviewFixture{svc: svc, repo: repo, jobsRepo: jobsRepo, cache: cache, chat: chat}
}

func validSubmission() model.InterviewSubmission {
	return model.InterviewSubmission{
		InterviewType:     model.InterviewTypeBasic,
		Duration:          "08:45",
		NumberOfQuestions: 1,
		Conversation: []model.ConversationTurn{
			{AI: "Introduce yourself.", Candidate: "I am a recent graduate..."},
		},
	}
}

func TestInterviewService_EnqueueFeedback(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newInterviewFixture(t, ctrl)

	job, err := f.svc.EnqueueFeedback(context.Background(), "student-1", validSubmission())
	if err != nil {
		t.Fatalf("EnqueueFeedback: %v", err)
	}
	if job.Type != model.JobTypeFeedback {
		t.Errorf("job type = %q, want feedback", job.Type)
	}
	if job.Status != model.JobStatusPending {
		t.Errorf("job status = %q, want pending", job.Status)
	}
}

func TestInterviewService_EnqueueFeedback_Validation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newInterviewFixture(t, ctrl)

	tests := []struct {
		name      string
		studentID string
		mutate    func(*model.InterviewSubmission)
	}{
		{name: "missing student", studentID: ""},
		{name: "bad type", studentID: "s1", mutate: func(s *model.InterviewSubmission) {
			s.InterviewType = "Casual"
		}},
		{name: "empty conversation", studentID: "s1", mutate: func(s *model.InterviewSubmission) {
			s.Conversation = nil
		}},
		{name: "too many turns", studentID: "s1", mutate: func(s *model.InterviewSubmission) {
			s.Conversation = make([]model.ConversationTurn, model.MaxConversationTurns+1)
			for i := range s.Conversation {
				s.Conversation[i] = model.ConversationTurn{AI: "q", Candidate: "a"}
			}
		}},
		{name: "blank question", studentID: "s1", mutate: func(s *model.InterviewSubmission) {
			s.Conversation[0].AI = "   "
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission()
			if tc.mutate != nil {
				tc.mutate(&sub)
			}
			_, err := f.svc.EnqueueFeedback(context.Background(), tc.studentID, sub)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if apperrors.GetCode(err) != apperrors.ErrCodeValidation {
				t.Errorf("error code = %q, want validation", apperrors.GetCode(err))
			}
		})
	}
}

func TestInterviewService_History_TypeFilterValidation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newInterviewFixture(t, ctrl)

	bad := model.InterviewType("Casual")
	_, err := f.svc.History(context.Background(), model.InterviewListOptions{
		StudentID:     "s1",
		InterviewType: &bad,
	})
	if apperrors.GetCode(err) != apperrors.ErrCodeValidation {
		t.Fatalf("error code = %q, want validation", apperrors.GetCode(err))
	}

	f.repo.summaries = []*model.InterviewSummary{{ID: "iv-1", TotalScore: 74}}
	got, err := f.svc.History(context.Background(), model.InterviewListOptions{StudentID: "s1", Limit: 10})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 || got[0].ID != "iv-1" {
		t.Errorf("unexpected summaries: %+v", got)
	}
}

func TestInterviewService_MarkViewed_InvalidatesUnviewedCache(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newInterviewFixture(t, ctrl)

	f.repo.details["iv-1"] = &model.Interview{ID: "iv-1", StudentID: "s1"}
	f.repo.unviewed = 1

	// Prime the cache.
	if _, err := f.svc.UnviewedCount(context.Background(), "s1"); err != nil {
		t.Fatalf("UnviewedCount: %v", err)
	}
	if _, ok := f.cache.entries["unviewed:s1"]; !ok {
		t.Fatal("unviewed count was not cached")
	}

	if err := f.svc.MarkViewed(context.Background(), "iv-1", "s1"); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if _, ok := f.cache.entries["unviewed:s1"]; ok {
		t.Error("unviewed cache entry was not invalidated")
	}

	// Unknown interview reads as not found.
	err := f.svc.MarkViewed(context.Background(), "missing", "s1")
	if apperrors.GetCode(err) != apperrors.ErrCodeNotFound {
		t.Errorf("error code = %q, want not_found", apperrors.GetCode(err))
	}
}

func TestInterviewService_UnviewedCount_ServedFromCache(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newInterviewFixture(t, ctrl)

	f.repo.unviewed = 3

	count, err := f.svc.UnviewedCount(context.Background(), "s1")
	if err != nil {
		t.Fatalf("UnviewedCount: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	// Repo changes but the cached value is still inside its TTL.
	f.repo.unviewed = 9
	count, err = f.svc.UnviewedCount(context.Background(), "s1")
	if err != nil {
		t.Fatalf("UnviewedCount: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want cached 3", count)
	}
}

func TestInterviewService_Dashboard_CachesAggregates(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newInterviewFixture(t, ctrl)

	f.repo.dashboard = &model.DashboardStats{
		InterviewsCount: 5,
		HighestScore:    91,
		TypeScores:      map[model.InterviewType]int{model.InterviewTypeBasic: 80},
	}

	stats, err := f.svc.Dashboard(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if stats.InterviewsCount != 5 || stats.HighestScore != 91 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	f.repo.dashboard = &model.DashboardStats{InterviewsCount: 99}
	stats, err = f.svc.Dashboard(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if stats.InterviewsCount != 5 {
		t.Errorf("interviews count = %d, want cached 5", stats.InterviewsCount)
	}
}

func TestInterviewService_FollowUpQuestion(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newInterviewFixture(t, ctrl)

	f.chat.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		Return("```json\n{\"followUpQuestion\": \"Why this company?\"}\n```", nil)

	question, err := f.svc.FollowUpQuestion(context.Background(), llm.FollowUpRequest{
		InterviewType: model.InterviewTypeBasic,
		Conversation:  validSubmission().Conversation,
	})
	if err != nil {
		t.Fatalf("FollowUpQuestion: %v", err)
	}
	if question != "Why this company?" {
		t.Errorf("question = %q", question)
	}
}

func TestInterviewService_FollowUpQuestion_EmptyModelAnswer(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newInterviewFixture(t, ctrl)

	f.chat.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		Return(`{"followUpQuestion": ""}`, nil)

	_, err := f.svc.FollowUpQuestion(context.Background(), llm.FollowUpRequest{
		InterviewType: model.InterviewTypeBasic,
		Conversation:  validSubmission().Conversation,
	})
	if err == nil {
		t.Fatal("expected error for empty follow-up question")
	}
}

func TestInterviewService_Greeting(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newInterviewFixture(t, ctrl)

	f.chat.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		Return(`{"greetingResponse": "Nice to meet you, Jordan."}`, nil)

	greeting, err := f.svc.Greeting(context.Background(), llm.GreetingRequest{
		UserName:        "Jordan",
		InterviewerName: "Alex",
		InterviewType:   model.InterviewTypeBehavioral,
		Turn:            model.ConversationTurn{AI: "Hello!", Candidate: "Hi, I'm Jordan."},
	})
	if err != nil {
		t.Fatalf("Greeting: %v", err)
	}
	if greeting != "Nice to meet you, Jordan." {
		t.Errorf("greeting = %q", greeting)
	}
}

func TestInterviewService_ChatNotConfigured(t *testing.T) {
	t.Parallel()

	svc, err := NewInterviewService(InterviewServiceOptions{
		Interviews: newStubInterviewRepo(),
		Jobs:       newTestJobService(t, newStubJobRepo()),
	})
	if err != nil {
		t.Fatalf("NewInterviewService: %v", err)
	}

	_, err = svc.FollowUpQuestion(context.Background(), llm.FollowUpRequest{
		InterviewType: model.InterviewTypeBasic,
		Conversation:  validSubmission().Conversation,
	})
	if apperrors.GetCode(err) != apperrors.ErrCodeInternal {
		t.Errorf("error code = %q, want internal", apperrors.GetCode(err))
	}
}
