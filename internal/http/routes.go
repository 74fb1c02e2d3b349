package httpx

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/prepwise/interview-api/internal/core"
	domainauth "github.com/prepwise/interview-api/internal/domain/auth"
	"github.com/prepwise/interview-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs       *service.JobService
	Interviews *service.InterviewService
	Reports    *service.ReportService
	Sessions   core.SessionStore
	CookieName string

	// Readiness probe dependencies (optional)
	DB    *sql.DB
	Cache core.CacheRepository

	Logger *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	auth := SessionAuthOptions{Store: services.Sessions, CookieName: services.CookieName}
	requireAuth := RequireAuth(auth)
	requireAdmin := RequireRole(auth, domainauth.RoleAdmin)

	interviewHandlers := &InterviewHandlers{Svc: services.Interviews}
	mux.Handle("POST /api/interviews", requireAuth(http.HandlerFunc(interviewHandlers.Submit)))
	mux.Handle("GET /api/interviews", requireAuth(http.HandlerFunc(interviewHandlers.History)))
	mux.Handle("GET /api/interviews/unviewed-count", requireAuth(http.HandlerFunc(interviewHandlers.UnviewedCount)))
	mux.Handle("GET /api/interviews/{id}", requireAuth(http.HandlerFunc(interviewHandlers.Detail)))
	mux.Handle("POST /api/interviews/{id}/viewed", requireAuth(http.HandlerFunc(interviewHandlers.MarkViewed)))
	mux.Handle("GET /api/interviews/jobs/{id}", requireAuth(http.HandlerFunc(interviewHandlers.JobStatus)))
	mux.Handle("GET /api/dashboard", requireAuth(http.HandlerFunc(interviewHandlers.Dashboard)))
	mux.Handle("POST /api/sessions/follow-up", requireAuth(http.HandlerFunc(interviewHandlers.FollowUp)))
	mux.Handle("POST /api/sessions/greeting", requireAuth(http.HandlerFunc(interviewHandlers.Greeting)))

	if services.Jobs != nil {
		jobHandlers := &JobHandlers{Svc: services.Jobs}
		mux.Handle("POST /api/jobs/{type}/reserve", requireAdmin(http.HandlerFunc(jobHandlers.ReserveNext)))
		mux.Handle("POST /api/jobs/{id}/heartbeat", requireAdmin(http.HandlerFunc(jobHandlers.Heartbeat)))
		mux.Handle("POST /api/jobs/{id}/complete", requireAdmin(http.HandlerFunc(jobHandlers.Complete)))
		mux.Handle("POST /api/jobs/{id}/fail", requireAdmin(http.HandlerFunc(jobHandlers.Fail)))
		mux.Handle("GET /api/jobs/{type}/stats", requireAdmin(http.HandlerFunc(jobHandlers.Stats)))
	}

	if services.Reports != nil {
		adminHandlers := &AdminHandlers{Reports: services.Reports}
		mux.Handle("GET /api/admin/queue-report", requireAdmin(http.HandlerFunc(adminHandlers.QueueReport)))
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	readiness := &ReadinessHandlers{DB: services.DB, Cache: services.Cache}
	mux.Handle("GET /readyz", http.HandlerFunc(readiness.Ready))

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
