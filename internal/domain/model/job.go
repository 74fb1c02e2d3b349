// Package model defines the core data types shared across the prepwise feedback pipeline.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType discriminates which worker handles a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobTypeFeedback represents a generate-interview-feedback job.
	JobTypeFeedback JobType = "feedback"

	// JobStatusPending indicates a job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates a job has finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job has exhausted its attempts.
	JobStatusFailed JobStatus = "failed"
)

// FeedbackJobName is the wire name of the feedback job class, kept for
// compatibility with the enqueue contract exposed to other services.
const FeedbackJobName = "generate-interview-feedback"

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// ErrNoJobsAvailable is returned when no jobs are available for reservation.
var ErrNoJobsAvailable = errors.New("no jobs available")

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	return t == JobTypeFeedback
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusRunning || s == JobStatusCompleted ||
		s == JobStatusFailed
}

// Job represents a durable unit of deferred work.
type Job struct {
	ID             string          `json:"id"                         db:"id"`
	Type           JobType         `json:"type"                       db:"type"`
	Status         JobStatus       `json:"status"                     db:"status"`
	Payload        json.RawMessage `json:"payload"                    db:"payload"`
	StudentID      *string         `json:"student_id,omitempty"       db:"student_id"`
	ScheduledAt    time.Time       `json:"scheduled_at"               db:"scheduled_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"       db:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"     db:"completed_at"`
	RetryCount     int             `json:"retry_count"                db:"retry_count"`
	MaxRetries     int             `json:"max_retries"                db:"max_retries"`
	LastError      *string         `json:"last_error,omitempty"       db:"last_error"`
	LeaseExpiresAt *time.Time      `json:"lease_expires_at,omitempty" db:"lease_expires_at"`
	CreatedAt      time.Time       `json:"created_at"                 db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"                 db:"updated_at"`
}

// CreateJobRequest represents a request to create a new job.
type CreateJobRequest struct {
	Type        JobType         `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	StudentID   *string         `json:"student_id,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	MaxRetries  int             `json:"max_retries"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid job type")
	}
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	if r.MaxRetries < 0 {
		return errors.New("max retries must be >= 0")
	}
	return nil
}

// JobStats represents statistics about jobs in different states.
type JobStats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// JobStatusResponse represents the status information for a specific job.
type JobStatusResponse struct {
	Status      JobStatus  `json:"status"`
	RetryCount  int        `json:"retry_count"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	LastError   *string    `json:"last_error,omitempty"`
}

// FeedbackJobPayload is the payload carried by a feedback job: the student
// identity plus the interview submission to score.
type FeedbackJobPayload struct {
	StudentID string              `json:"studentId"`
	Payload   InterviewSubmission `json:"payload"`
}

// Validate validates the FeedbackJobPayload fields.
func (p *FeedbackJobPayload) Validate() error {
	if strings.TrimSpace(p.StudentID) == "" {
		return errors.New("studentId is required")
	}
	return p.Payload.Validate()
}
