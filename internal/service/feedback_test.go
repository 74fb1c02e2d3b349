package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/domain/model"
	"github.com/prepwise/interview-api/internal/mocks"
)

// stubInterviewRepo is an in-memory InterviewRepository keyed by job ID.
type stubInterviewRepo struct {
	mu sync.Mutex

	byJobID map[string]*model.CreateInterviewRequest

	createErr error

	details   map[string]*model.Interview
	summaries []*model.InterviewSummary
	unviewed  int
	dashboard *model.DashboardStats
	viewedIDs map[string]bool

	lastListOpts model.InterviewListOptions
}

func newStubInterviewRepo() *stubInterviewRepo {
	return &stubInterviewRepo{
		byJobID:   make(map[string]*model.CreateInterviewRequest),
		details:   make(map[string]*model.Interview),
		viewedIDs: make(map[string]bool),
	}
}

func (s *stubInterviewRepo) CreateFromJob(_ context.Context, req *model.CreateInterviewRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return false, s.createErr
	}
	if _, exists := s.byJobID[req.JobID]; exists {
		return false, nil
	}
	s.byJobID[req.JobID] = req
	return true, nil
}

func (s *stubInterviewRepo) GetDetail(_ context.Context, interviewID, studentID string) (*model.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.details[interviewID]
	if !ok || iv.StudentID != studentID {
		return nil, errors.New("interview not found")
	}
	return iv, nil
}

func (s *stubInterviewRepo) ListHistory(
	_ context.Context,
	opts model.InterviewListOptions,
) ([]*model.InterviewSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastListOpts = opts
	return s.summaries, nil
}

func (s *stubInterviewRepo) MarkViewed(_ context.Context, interviewID, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewedIDs[interviewID] {
		return true, nil
	}
	if _, ok := s.details[interviewID]; !ok {
		return false, nil
	}
	s.viewedIDs[interviewID] = true
	return true, nil
}

func (s *stubInterviewRepo) UnviewedCount(_ context.Context, _ string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unviewed, nil
}

func (s *stubInterviewRepo) DashboardStats(_ context.Context, _ string) (*model.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dashboard == nil {
		return &model.DashboardStats{}, nil
	}
	return s.dashboard, nil
}

var _ core.InterviewRepository = (*stubInterviewRepo)(nil)

func feedbackJob(t *testing.T, id string) *model.Job {
	t.Helper()
	payload := model.FeedbackJobPayload{
		StudentID: "student-1",
		Payload: model.InterviewSubmission{
			InterviewType:     model.InterviewTypeBehavioral,
			Duration:          "12:30",
			NumberOfQuestions: 2,
			Conversation: []model.ConversationTurn{
				{AI: "Tell me about a conflict you resolved.", Candidate: "At my last job..."},
				{AI: "What would you do differently?", Candidate: "I would escalate sooner."},
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &model.Job{ID: id, Type: model.JobTypeFeedback, Payload: raw}
}

const scoringResponse = "```json\n" + `{
  "scores": {"grammar": 80, "experience": 70, "skills": 90, "relevance": 60, "fillerCount": 4, "totalScore": 1},
  "areasOfImprovements": ["Be more concise", ""],
  "feedbacks": ["Good structure"]
}` + "\n```"

func TestFeedbackService_Process(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatCompleter(ctrl)
	chat.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(scoringResponse, nil)

	repo := newStubInterviewRepo()
	svc, err := NewFeedbackService(FeedbackServiceOptions{Interviews: repo, Chat: chat})
	if err != nil {
		t.Fatalf("NewFeedbackService: %v", err)
	}

	if processErr := svc.Process(context.Background(), feedbackJob(t, "job-1")); processErr != nil {
		t.Fatalf("Process: %v", processErr)
	}

	req, ok := repo.byJobID["job-1"]
	if !ok {
		t.Fatal("interview record was not persisted")
	}

	// Total score is recomputed locally, ignoring the model-reported total:
	// 80*.20 + 70*.25 + 90*.25 + 60*.20 + 60*.10 = 74.
	if req.Scores.TotalScore != 74 {
		t.Errorf("total score = %d, want 74", req.Scores.TotalScore)
	}
	if req.Scores.FillerCount != 4 {
		t.Errorf("filler count = %d, want 4", req.Scores.FillerCount)
	}

	if len(req.Feedbacks) != 2 {
		t.Fatalf("feedback entries = %d, want 2", len(req.Feedbacks))
	}
	if req.Feedbacks[0].AreaOfImprovement != "Be more concise" {
		t.Errorf("entry 0 area = %q", req.Feedbacks[0].AreaOfImprovement)
	}
	// Empty and missing model entries fall back to N/A.
	if req.Feedbacks[1].AreaOfImprovement != "N/A" {
		t.Errorf("entry 1 area = %q, want N/A", req.Feedbacks[1].AreaOfImprovement)
	}
	if req.Feedbacks[1].AnswerFeedback != "N/A" {
		t.Errorf("entry 1 feedback = %q, want N/A", req.Feedbacks[1].AnswerFeedback)
	}
}

func TestFeedbackService_Process_Redelivery(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chat := mocks.NewMockChatCompleter(ctrl)
	chat.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(scoringResponse, nil).Times(2)

	repo := newStubInterviewRepo()
	svc, err := NewFeedbackService(FeedbackServiceOptions{Interviews: repo, Chat: chat})
	if err != nil {
		t.Fatalf("NewFeedbackService: %v", err)
	}

	job := feedbackJob(t, "job-dup")
	if processErr := svc.Process(context.Background(), job); processErr != nil {
		t.Fatalf("first Process: %v", processErr)
	}
	// Second delivery of the same job must succeed without creating a duplicate.
	if processErr := svc.Process(context.Background(), job); processErr != nil {
		t.Fatalf("second Process: %v", processErr)
	}
	if len(repo.byJobID) != 1 {
		t.Errorf("records = %d, want 1", len(repo.byJobID))
	}
}

func TestFeedbackService_Process_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		job      *model.Job
		response string
		chatErr  error
	}{
		{
			name: "malformed payload",
			job:  &model.Job{ID: "j", Payload: json.RawMessage(`{notjson`)},
		},
		{
			name: "invalid payload",
			job:  &model.Job{ID: "j", Payload: json.RawMessage(`{"studentId":"","payload":{}}`)},
		},
		{
			name:    "chat failure",
			job:     nil, // filled below
			chatErr: errors.New("upstream 529"),
		},
		{
			name:     "unparseable response",
			job:      nil,
			response: "I am unable to produce JSON today.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			chat := mocks.NewMockChatCompleter(ctrl)
			job := tc.job
			if job == nil {
				job = feedbackJob(t, "job-err")
				chat.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(tc.response, tc.chatErr)
			}

			repo := newStubInterviewRepo()
			svc, err := NewFeedbackService(FeedbackServiceOptions{Interviews: repo, Chat: chat})
			if err != nil {
				t.Fatalf("NewFeedbackService: %v", err)
			}

			if processErr := svc.Process(context.Background(), job); processErr == nil {
				t.Fatal("expected Process to fail")
			}
			if len(repo.byJobID) != 0 {
				t.Error("no record should be persisted on failure")
			}
		})
	}
}
