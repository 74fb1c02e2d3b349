package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/domain/model"
	"github.com/prepwise/interview-api/internal/llm"
)

// FeedbackServiceOptions groups dependencies for FeedbackService.
type FeedbackServiceOptions struct {
	Interviews core.InterviewRepository // Required: interview record repository
	Chat       core.ChatCompleter       // Required: LLM gateway
	Logger     *slog.Logger             // Optional: structured logger
}

// FeedbackService scores a finished interview: it prompts the model with the
// transcript, parses the structured response, recomputes the weighted total,
// and persists the record keyed by the originating job so redelivery stays
// idempotent.
type FeedbackService struct {
	interviews core.InterviewRepository
	chat       core.ChatCompleter
	logger     *slog.Logger
}

// NewFeedbackService constructs a new FeedbackService.
func NewFeedbackService(opts FeedbackServiceOptions) (*FeedbackService, error) {
	if opts.Interviews == nil {
		return nil, errors.New("InterviewRepository is required")
	}
	if opts.Chat == nil {
		return nil, errors.New("ChatCompleter is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "feedback_service")
	}

	return &FeedbackService{
		interviews: opts.Interviews,
		chat:       opts.Chat,
		logger:     logger,
	}, nil
}

// Process scores the interview carried by the given feedback job. A non-nil
// error means the attempt failed and the job should be retried or failed by
// the caller.
func (s *FeedbackService) Process(ctx context.Context, job *model.Job) error {
	if job == nil {
		return errors.New("job is required")
	}

	var payload model.FeedbackJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode feedback payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return fmt.Errorf("invalid feedback payload: %w", err)
	}

	submission := payload.Payload

	raw, err := s.chat.Chat(ctx, core.ChatRequest{
		Prompt: llm.FeedbackPrompt(submission.Conversation),
	})
	if err != nil {
		return fmt.Errorf("score interview: %w", err)
	}

	var result llm.FeedbackResult
	if err := llm.ExtractJSON(raw, &result); err != nil {
		return fmt.Errorf("parse scoring response: %w", err)
	}

	scores := buildScores(result.Scores)
	feedbacks := buildFeedbackEntries(submission.Conversation, result)

	created, err := s.interviews.CreateFromJob(ctx, &model.CreateInterviewRequest{
		JobID:             job.ID,
		StudentID:         payload.StudentID,
		InterviewType:     submission.InterviewType,
		Duration:          submission.Duration,
		NumberOfQuestions: submission.NumberOfQuestions,
		Scores:            scores,
		Feedbacks:         feedbacks,
	})
	if err != nil {
		return fmt.Errorf("persist interview record: %w", err)
	}

	if s.logger != nil {
		if created {
			s.logger.InfoContext(ctx, "interview scored",
				"job_id", job.ID,
				"student_id", payload.StudentID,
				"total_score", scores.TotalScore,
			)
		} else {
			// Redelivered job; the record already exists.
			s.logger.InfoContext(ctx, "interview record already exists, skipping",
				"job_id", job.ID,
				"student_id", payload.StudentID,
			)
		}
	}

	return nil
}

// buildScores copies the model-reported sub-scores and replaces the total with
// the locally computed weighted aggregate.
func buildScores(reported llm.FeedbackScores) model.Scores {
	return model.Scores{
		Grammar:     reported.Grammar,
		Experience:  reported.Experience,
		Skills:      reported.Skills,
		Relevance:   reported.Relevance,
		FillerCount: reported.FillerCount,
		TotalScore:  llm.TotalScore(reported),
	}
}

// buildFeedbackEntries zips the transcript with the per-answer feedback lists.
// Models occasionally return fewer entries than answers; missing entries fall
// back to "N/A" rather than failing the whole job.
func buildFeedbackEntries(conversation []model.ConversationTurn, result llm.FeedbackResult) []model.FeedbackEntry {
	entries := make([]model.FeedbackEntry, 0, len(conversation))
	for i, turn := range conversation {
		entry := model.FeedbackEntry{
			Question:          turn.AI,
			Answer:            turn.Candidate,
			AreaOfImprovement: "N/A",
			AnswerFeedback:    "N/A",
		}
		if i < len(result.AreasOfImprovements) && result.AreasOfImprovements[i] != "" {
			entry.AreaOfImprovement = result.AreasOfImprovements[i]
		}
		if i < len(result.Feedbacks) && result.Feedbacks[i] != "" {
			entry.AnswerFeedback = result.Feedbacks[i]
		}
		entries = append(entries, entry)
	}
	return entries
}
