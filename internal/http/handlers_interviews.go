package httpx

import (
	"errors"
	"net/http"

	"github.com/prepwise/interview-api/internal/domain/model"
	"github.com/prepwise/interview-api/internal/llm"
	"github.com/prepwise/interview-api/internal/service"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// InterviewHandlers provides the student-facing HTTP surface: submitting
// interviews for scoring, polling the job, and reading the resulting records.
// The student identity always comes from the authenticated session, never
// from the request body.
type InterviewHandlers struct {
	Svc *service.InterviewService
}

// Submit enqueues a feedback scoring job for a finished interview.
// Responds 202 with the job ID clients poll for completion.
func (h *InterviewHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	var submission model.InterviewSubmission
	if !DecodeJSON(w, r, &submission) {
		return
	}

	job, err := h.Svc.EnqueueFeedback(r.Context(), session.StudentID, submission)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

// JobStatus reports the state of a feedback job for polling clients.
func (h *InterviewHandlers) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")},
		)
		return
	}

	status, err := h.Svc.JobStatus(r.Context(), jobID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// History lists the student's past interviews, newest first. Supports
// optional type filtering and limit/offset pagination.
func (h *InterviewHandlers) History(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	limit, offset := ParseLimitOffset(r, defaultHistoryLimit, maxHistoryLimit)
	opts := model.InterviewListOptions{
		StudentID: session.StudentID,
		Limit:     limit,
		Offset:    offset,
	}
	if v := r.URL.Query().Get("type"); v != "" {
		it := model.InterviewType(v)
		opts.InterviewType = &it
	}

	summaries, err := h.Svc.History(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summaries)
}

// Detail returns the full record of one interview owned by the student.
func (h *InterviewHandlers) Detail(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	iv, err := h.Svc.Detail(r.Context(), r.PathValue("id"), session.StudentID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, iv)
}

// MarkViewed flags an interview as viewed by its owner.
func (h *InterviewHandlers) MarkViewed(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	if err := h.Svc.MarkViewed(r.Context(), r.PathValue("id"), session.StudentID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// UnviewedCount returns the student's unviewed interview count for the badge.
func (h *InterviewHandlers) UnviewedCount(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	count, err := h.Svc.UnviewedCount(r.Context(), session.StudentID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"count": count})
}

// Dashboard returns aggregate performance statistics for the student.
func (h *InterviewHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	stats, err := h.Svc.Dashboard(r.Context(), session.StudentID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// FollowUp generates the next interview question for a live session.
func (h *InterviewHandlers) FollowUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InterviewType model.InterviewType      `json:"interviewType"`
		Conversation  []model.ConversationTurn `json:"conversation"`
	}
	if !DecodeJSON(w, r, &body) {
		return
	}

	question, err := h.Svc.FollowUpQuestion(r.Context(), llm.FollowUpRequest{
		InterviewType: body.InterviewType,
		Conversation:  body.Conversation,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"followUpQuestion": question})
}

// Greeting generates the interviewer's opening response for a live session.
func (h *InterviewHandlers) Greeting(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserName        string                 `json:"userName"`
		InterviewerName string                 `json:"interviewerName"`
		InterviewType   model.InterviewType    `json:"interviewType"`
		Conversation    model.ConversationTurn `json:"conversation"`
	}
	if !DecodeJSON(w, r, &body) {
		return
	}

	greeting, err := h.Svc.Greeting(r.Context(), llm.GreetingRequest{
		UserName:        body.UserName,
		InterviewerName: body.InterviewerName,
		InterviewType:   body.InterviewType,
		Turn:            body.Conversation,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"greetingResponse": greeting})
}
