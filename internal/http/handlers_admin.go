package httpx

import (
	"net/http"

	"github.com/prepwise/interview-api/internal/service"
)

// AdminHandlers exposes operator-only reporting over the job queue.
type AdminHandlers struct {
	Reports *service.ReportService
}

// QueueReport evaluates an optional JMESPath expression against the current
// queue snapshot. Without a query the whole snapshot is returned.
func (h *AdminHandlers) QueueReport(w http.ResponseWriter, r *http.Request) {
	result, err := h.Reports.Query(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
