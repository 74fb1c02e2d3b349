// Package httpx provides HTTP handlers and utilities for the prepwise interview feedback API.
package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prepwise/interview-api/internal/domain/model"
	"github.com/prepwise/interview-api/internal/service"
)

// JobHandlers provides HTTP handlers for job queue operations. This surface
// exists for out-of-process workers and operators; browser clients only poll
// job status through the interview handlers.
type JobHandlers struct {
	Svc *service.JobService
}

const (
	defaultLeaseSeconds = 120
)

// ReserveNext handles HTTP requests to reserve the next available job.
// Supports long polling via the wait query param (seconds).
func (h *JobHandlers) ReserveNext(w http.ResponseWriter, r *http.Request) {
	jobType := model.JobType(r.PathValue("type"))
	if !jobType.Valid() {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("valid job type is required")},
		)
		return
	}
	lease := parseIntQuery(r, "lease", defaultLeaseSeconds)
	wait := parseIntQuery(r, "wait", 0)

	// First attempt
	if job, err := h.tryReserveJob(r.Context(), jobType, lease); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "reserve_failed", Err: err})
		return
	} else if job != nil {
		WriteJSON(w, http.StatusOK, job)
		return
	}

	if wait <= 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.handleLongPoll(w, r, longPollParams{
		jobType: jobType,
		lease:   lease,
		wait:    wait,
	})
}

func (h *JobHandlers) tryReserveJob(
	ctx context.Context,
	jobType model.JobType,
	lease int,
) (*model.Job, error) {
	job, err := h.Svc.ReserveNext(ctx, jobType, time.Duration(lease)*time.Second)
	if err != nil && !errors.Is(err, model.ErrNoJobsAvailable) {
		return nil, err
	}
	return job, nil
}

type longPollParams struct {
	jobType model.JobType
	lease   int
	wait    int
}

func (h *JobHandlers) handleLongPoll(w http.ResponseWriter, r *http.Request, params longPollParams) {
	dur := time.Duration(params.wait) * time.Second
	if dur <= 0 {
		dur = time.Second
	}

	ctx, cancel := context.WithTimeout(r.Context(), dur)
	defer cancel()

	unsub, ch := h.Svc.Subscribe(params.jobType)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			w.WriteHeader(http.StatusNoContent)
			return
		case <-ch:
			if job, err := h.tryReserveJob(ctx, params.jobType, params.lease); err != nil {
				WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "reserve_failed", Err: err})
				return
			} else if job != nil {
				WriteJSON(w, http.StatusOK, job)
				return
			}
			// No job yet; keep waiting until ctx timeout to handle missed/duplicate signals.
		}
	}
}

// Heartbeat handles HTTP requests to extend a job lease.
func (h *JobHandlers) Heartbeat(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")},
		)
		return
	}
	extend := parseIntQuery(r, "extend", defaultLeaseSeconds)

	success, err := h.Svc.Heartbeat(r.Context(), jobID, time.Duration(extend)*time.Second)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "heartbeat_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": success})
}

// Complete handles HTTP requests to mark a job as completed.
func (h *JobHandlers) Complete(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")},
		)
		return
	}

	success, err := h.Svc.Complete(r.Context(), jobID)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "complete_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": success})
}

// Fail handles HTTP requests to record a failed job attempt with an error message.
func (h *JobHandlers) Fail(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")},
		)
		return
	}

	var body struct {
		Error string `json:"error"`
	}
	if !DecodeJSON(w, r, &body) {
		return
	}

	success, err := h.Svc.Fail(r.Context(), jobID, body.Error)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "fail_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": success})
}

// Stats handles HTTP requests to retrieve job stats for a job type.
func (h *JobHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	jobType := model.JobType(r.PathValue("type"))
	if !jobType.Valid() {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("valid job type is required")},
		)
		return
	}

	stats, err := h.Svc.Stats(r.Context(), jobType)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "stats_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
