package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/prepwise/interview-api/internal/core"
	domainauth "github.com/prepwise/interview-api/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionAuthOptions configures session resolution for the auth middleware.
type SessionAuthOptions struct {
	Store      core.SessionStore
	CookieName string
}

// RequireAuth returns a middleware that requires an authenticated session.
// The session ID is read from the configured cookie or a bearer token; the
// resolved session is placed in the request context.
func RequireAuth(opts SessionAuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := resolveSession(r, opts)
			if session == nil {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}

			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware that requires a specific role.
// If the user doesn't have the required role, it returns a 403 Forbidden response.
func RequireRole(opts SessionAuthOptions, requiredRole domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := resolveSession(r, opts)
			if session == nil {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}

			if !hasRequiredRole(session.Role, requiredRole) {
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}

			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveSession extracts the session ID from the request and resolves it
// against the store. Returns nil for missing, unknown, or expired sessions.
func resolveSession(r *http.Request, opts SessionAuthOptions) *domainauth.Session {
	if opts.Store == nil {
		return nil
	}

	id := sessionIDFromRequest(r, opts.CookieName)
	if id == "" {
		return nil
	}

	sess, err := opts.Store.Get(r.Context(), id)
	if err != nil {
		return nil
	}
	if sess.Expired(time.Now()) {
		return nil
	}
	return &sess
}

func sessionIDFromRequest(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// hasRequiredRole reports whether role satisfies the required role.
// Admin satisfies every requirement.
func hasRequiredRole(role, required domainauth.Role) bool {
	if role == domainauth.RoleAdmin {
		return true
	}
	return role == required
}
