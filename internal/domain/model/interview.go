package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InterviewType categorises a mock interview session.
type InterviewType string

const (
	// InterviewTypeBasic covers introductory questions.
	InterviewTypeBasic InterviewType = "Basic"
	// InterviewTypeBehavioral covers past-experience questions.
	InterviewTypeBehavioral InterviewType = "Behavioral"
	// InterviewTypeExpert covers advanced job-specific questions.
	InterviewTypeExpert InterviewType = "Expert"
)

// Valid returns true if the InterviewType is valid.
func (t InterviewType) Valid() bool {
	return t == InterviewTypeBasic || t == InterviewTypeBehavioral || t == InterviewTypeExpert
}

// MaxConversationTurns bounds the transcript length accepted from clients.
const MaxConversationTurns = 20

// ConversationTurn is one interviewer/candidate exchange.
type ConversationTurn struct {
	AI        string `json:"AI"`
	Candidate string `json:"CANDIDATE"`
}

// InterviewSubmission is the client-submitted record of a finished interview,
// prior to scoring.
type InterviewSubmission struct {
	InterviewType     InterviewType      `json:"interviewType"`
	Duration          string             `json:"duration"`
	NumberOfQuestions int                `json:"numberOfQuestions"`
	Conversation      []ConversationTurn `json:"conversation"`
}

// Validate validates the InterviewSubmission fields.
func (s *InterviewSubmission) Validate() error {
	if !s.InterviewType.Valid() {
		return fmt.Errorf("interviewType must be one of: Basic, Behavioral, Expert")
	}
	if strings.TrimSpace(s.Duration) == "" {
		return errors.New("duration is required and cannot be empty")
	}
	if s.NumberOfQuestions < 1 {
		return errors.New("numberOfQuestions must be at least 1")
	}
	if len(s.Conversation) == 0 {
		return errors.New("conversation is required and cannot be empty")
	}
	if len(s.Conversation) > MaxConversationTurns {
		return fmt.Errorf("conversation cannot exceed %d turns", MaxConversationTurns)
	}
	for i := range s.Conversation {
		if strings.TrimSpace(s.Conversation[i].AI) == "" {
			return fmt.Errorf("conversation turn %d: question cannot be empty", i+1)
		}
	}
	return nil
}

// Scores is the five-part score block for a scored interview.
type Scores struct {
	Grammar     int `json:"grammar"`
	Experience  int `json:"experience"`
	Skills      int `json:"skills"`
	Relevance   int `json:"relevance"`
	FillerCount int `json:"fillerCount"`
	TotalScore  int `json:"totalScore"`
}

// FeedbackEntry is one per-turn feedback row in an interview record.
type FeedbackEntry struct {
	Question          string `json:"question"`
	Answer            string `json:"answer"`
	AreaOfImprovement string `json:"areaOfImprovement"`
	AnswerFeedback    string `json:"answerFeedback"`
}

// Interview is the durable, queryable record of a completed, scored interview.
type Interview struct {
	ID                string          `json:"id"                  db:"id"`
	JobID             string          `json:"job_id"              db:"job_id"`
	StudentID         string          `json:"student_id"          db:"student_id"`
	InterviewType     InterviewType   `json:"interview_type"      db:"interview_type"`
	Duration          string          `json:"duration"            db:"duration"`
	NumberOfQuestions int             `json:"number_of_questions" db:"number_of_questions"`
	Scores            Scores          `json:"scores"`
	Feedbacks         []FeedbackEntry `json:"feedbacks"`
	Viewed            bool            `json:"viewed"              db:"viewed"`
	CreatedAt         time.Time       `json:"created_at"          db:"created_at"`
}

// CreateInterviewRequest carries everything needed to persist a scored interview.
// JobID keys the upsert so a redelivered job cannot create a duplicate record.
type CreateInterviewRequest struct {
	JobID             string
	StudentID         string
	InterviewType     InterviewType
	Duration          string
	NumberOfQuestions int
	Scores            Scores
	Feedbacks         []FeedbackEntry
}

// Validate validates the CreateInterviewRequest fields.
func (r *CreateInterviewRequest) Validate() error {
	if strings.TrimSpace(r.JobID) == "" {
		return errors.New("job id is required and cannot be empty")
	}
	if strings.TrimSpace(r.StudentID) == "" {
		return errors.New("student id is required and cannot be empty")
	}
	if !r.InterviewType.Valid() {
		return errors.New("interview type must be one of: Basic, Behavioral, Expert")
	}
	if len(r.Feedbacks) == 0 {
		return errors.New("feedbacks is required and cannot be empty")
	}
	return nil
}

// InterviewSummary is the shape returned by history listings.
type InterviewSummary struct {
	ID                string        `json:"id"`
	InterviewType     InterviewType `json:"interview_type"`
	Duration          string        `json:"duration"`
	NumberOfQuestions int           `json:"number_of_questions"`
	TotalScore        int           `json:"total_score"`
	Viewed            bool          `json:"viewed"`
	CreatedAt         time.Time     `json:"created_at"`
}

// InterviewListOptions filters history listings.
type InterviewListOptions struct {
	StudentID     string
	InterviewType *InterviewType
	Limit         int
	Offset        int
}

// DashboardStats aggregates a student's interview performance for the dashboard.
type DashboardStats struct {
	InterviewsCount int                   `json:"interviews_count"`
	AverageScores   Scores                `json:"average_scores"`
	HighestScore    int                   `json:"highest_score"`
	TypeScores      map[InterviewType]int `json:"type_scores"`
}
