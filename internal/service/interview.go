package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/data"
	"github.com/prepwise/interview-api/internal/domain/model"
	apperrors "github.com/prepwise/interview-api/internal/errors"
	"github.com/prepwise/interview-api/internal/llm"
)

const (
	dashboardCachePrefix = "dashboard:"
	unviewedCachePrefix  = "unviewed:"

	defaultDashboardTTL = time.Minute
	defaultUnviewedTTL  = 30 * time.Second
)

// InterviewServiceOptions groups dependencies for InterviewService.
type InterviewServiceOptions struct {
	Interviews core.InterviewRepository // Required: interview record repository
	Jobs       *JobService              // Required: job queue service (feedback producer)
	Chat       core.ChatCompleter       // Required for follow-up and greeting generation
	Cache      core.CacheRepository     // Optional: read-model cache
	Logger     *slog.Logger             // Optional: structured logger

	// DashboardTTL and UnviewedTTL bound cache staleness. Zero values fall
	// back to short defaults.
	DashboardTTL time.Duration
	UnviewedTTL  time.Duration
}

// InterviewService orchestrates the interview feedback lifecycle: enqueueing
// scoring jobs, querying the resulting records, and generating conversational
// prompts during a live session.
type InterviewService struct {
	interviews core.InterviewRepository
	jobs       *JobService
	chat       core.ChatCompleter
	cache      core.CacheRepository
	logger     *slog.Logger

	dashboardTTL time.Duration
	unviewedTTL  time.Duration
}

// NewInterviewService constructs a new InterviewService.
func NewInterviewService(opts InterviewServiceOptions) (*InterviewService, error) {
	if opts.Interviews == nil {
		return nil, errors.New("InterviewRepository is required")
	}
	if opts.Jobs == nil {
		return nil, errors.New("JobService is required")
	}

	dashboardTTL := opts.DashboardTTL
	if dashboardTTL <= 0 {
		dashboardTTL = defaultDashboardTTL
	}
	unviewedTTL := opts.UnviewedTTL
	if unviewedTTL <= 0 {
		unviewedTTL = defaultUnviewedTTL
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "interview_service")
	}

	return &InterviewService{
		interviews:   opts.Interviews,
		jobs:         opts.Jobs,
		chat:         opts.Chat,
		cache:        opts.Cache,
		logger:       logger,
		dashboardTTL: dashboardTTL,
		unviewedTTL:  unviewedTTL,
	}, nil
}

// EnqueueFeedback validates a finished interview submission and enqueues a
// feedback scoring job for it. The returned job carries the ID clients poll
// for completion.
func (s *InterviewService) EnqueueFeedback(
	ctx context.Context,
	studentID string,
	submission model.InterviewSubmission,
) (*model.Job, error) {
	payload := model.FeedbackJobPayload{
		StudentID: studentID,
		Payload:   submission,
	}
	if err := payload.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode feedback payload: %w", err)
	}

	job, err := s.jobs.Create(ctx, &model.CreateJobRequest{
		Type:      model.JobTypeFeedback,
		Payload:   raw,
		StudentID: &studentID,
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue feedback job: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "feedback job enqueued",
			"job_id", job.ID,
			"student_id", studentID,
			"interview_type", submission.InterviewType,
		)
	}

	return job, nil
}

// History returns a page of the student's past interviews, newest first.
func (s *InterviewService) History(
	ctx context.Context,
	opts model.InterviewListOptions,
) ([]*model.InterviewSummary, error) {
	if opts.StudentID == "" {
		return nil, apperrors.Validation("student id is required")
	}
	if opts.InterviewType != nil && !opts.InterviewType.Valid() {
		return nil, apperrors.Validation("interview type must be one of: Basic, Behavioral, Expert")
	}

	summaries, err := s.interviews.ListHistory(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list interview history: %w", err)
	}
	return summaries, nil
}

// Detail returns the full record of one interview. Lookups are always scoped
// to the owning student; an interview belonging to someone else reads as not
// found.
func (s *InterviewService) Detail(ctx context.Context, interviewID, studentID string) (*model.Interview, error) {
	if interviewID == "" || studentID == "" {
		return nil, apperrors.Validation("interview id and student id are required")
	}

	iv, err := s.interviews.GetDetail(ctx, interviewID, studentID)
	if err != nil {
		if errors.Is(err, data.ErrInterviewNotFound) {
			return nil, apperrors.NotFound("interview not found")
		}
		return nil, fmt.Errorf("get interview detail: %w", err)
	}
	return iv, nil
}

// MarkViewed flags an interview as viewed by its owner and invalidates the
// cached unviewed count.
func (s *InterviewService) MarkViewed(ctx context.Context, interviewID, studentID string) error {
	if interviewID == "" || studentID == "" {
		return apperrors.Validation("interview id and student id are required")
	}

	updated, err := s.interviews.MarkViewed(ctx, interviewID, studentID)
	if err != nil {
		return fmt.Errorf("mark interview viewed: %w", err)
	}
	if !updated {
		return apperrors.NotFound("interview not found")
	}

	s.invalidateCache(ctx, unviewedCachePrefix+studentID)
	return nil
}

// UnviewedCount returns how many of the student's interviews have not been
// viewed yet. The value is cached briefly since it backs a badge polled by
// clients.
func (s *InterviewService) UnviewedCount(ctx context.Context, studentID string) (int, error) {
	if studentID == "" {
		return 0, apperrors.Validation("student id is required")
	}

	key := unviewedCachePrefix + studentID
	if cached, ok := s.cacheGet(ctx, key); ok {
		if count, err := strconv.Atoi(string(cached)); err == nil {
			return count, nil
		}
	}

	count, err := s.interviews.UnviewedCount(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("count unviewed interviews: %w", err)
	}

	s.cacheSet(ctx, key, []byte(strconv.Itoa(count)), s.unviewedTTL)
	return count, nil
}

// Dashboard returns aggregate performance statistics for the student.
// Aggregates are cached briefly; a freshly scored interview may take up to the
// TTL to show up.
func (s *InterviewService) Dashboard(ctx context.Context, studentID string) (*model.DashboardStats, error) {
	if studentID == "" {
		return nil, apperrors.Validation("student id is required")
	}

	key := dashboardCachePrefix + studentID
	if cached, ok := s.cacheGet(ctx, key); ok {
		var stats model.DashboardStats
		if err := json.Unmarshal(cached, &stats); err == nil {
			return &stats, nil
		}
	}

	stats, err := s.interviews.DashboardStats(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load dashboard stats: %w", err)
	}

	if encoded, err := json.Marshal(stats); err == nil {
		s.cacheSet(ctx, key, encoded, s.dashboardTTL)
	}

	return stats, nil
}

// FollowUpQuestion asks the model for the next interview question given the
// conversation so far.
func (s *InterviewService) FollowUpQuestion(ctx context.Context, req llm.FollowUpRequest) (string, error) {
	if s.chat == nil {
		return "", apperrors.Internal("chat completer is not configured")
	}
	if !req.InterviewType.Valid() {
		return "", apperrors.Validation("interview type must be one of: Basic, Behavioral, Expert")
	}
	if len(req.Conversation) == 0 {
		return "", apperrors.Validation("conversation is required and cannot be empty")
	}

	raw, err := s.chat.Chat(ctx, core.ChatRequest{Prompt: llm.FollowUpPrompt(req)})
	if err != nil {
		return "", fmt.Errorf("generate follow-up question: %w", err)
	}

	var parsed struct {
		FollowUpQuestion string `json:"followUpQuestion"`
	}
	if err := llm.ExtractJSON(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse follow-up response: %w", err)
	}
	if parsed.FollowUpQuestion == "" {
		return "", errors.New("model returned an empty follow-up question")
	}
	return parsed.FollowUpQuestion, nil
}

// Greeting asks the model for the interviewer's opening response to the
// candidate's introduction.
func (s *InterviewService) Greeting(ctx context.Context, req llm.GreetingRequest) (string, error) {
	if s.chat == nil {
		return "", apperrors.Internal("chat completer is not configured")
	}
	if !req.InterviewType.Valid() {
		return "", apperrors.Validation("interview type must be one of: Basic, Behavioral, Expert")
	}

	raw, err := s.chat.Chat(ctx, core.ChatRequest{Prompt: llm.GreetingPrompt(req)})
	if err != nil {
		return "", fmt.Errorf("generate greeting: %w", err)
	}

	var parsed struct {
		GreetingResponse string `json:"greetingResponse"`
	}
	if err := llm.ExtractJSON(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse greeting response: %w", err)
	}
	if parsed.GreetingResponse == "" {
		return "", errors.New("model returned an empty greeting")
	}
	return parsed.GreetingResponse, nil
}

// JobStatus exposes the polling surface for feedback jobs.
func (s *InterviewService) JobStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	status, err := s.jobs.GetStatus(ctx, jobID)
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			return nil, apperrors.NotFound("job not found")
		}
		return nil, err
	}
	return status, nil
}

// cacheGet reads a cached value, treating any cache failure as a miss.
func (s *InterviewService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil || value == nil {
		return nil, false
	}
	return value, true
}

// cacheSet writes a cached value; failures are logged and swallowed since the
// cache is an optimisation, not a source of truth.
func (s *InterviewService) cacheSet(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}
}

func (s *InterviewService) invalidateCache(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Delete(ctx, key); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed", "key", key, "error", err)
	}
}
