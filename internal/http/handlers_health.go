package httpx

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prepwise/interview-api/internal/core"
)

const (
	healthResponse   = `{"status":"ok"}`
	readinessTimeout = 5 * time.Second
)

// healthHandler returns a simple 200 OK status for readiness/liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// ReadinessHandlers checks downstream dependencies for the readiness probe.
type ReadinessHandlers struct {
	DB    *sql.DB
	Cache core.CacheRepository
}

// Ready reports 200 only when the database and cache both answer. The checks
// run concurrently so one slow dependency does not mask the other.
func (h *ReadinessHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	var mu sync.Mutex
	checks := map[string]string{}
	record := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			checks[name] = err.Error()
			return
		}
		checks[name] = "ok"
	}

	// A plain group: a failing check must not cancel the other one, both
	// results belong in the response.
	var g errgroup.Group
	if h.DB != nil {
		g.Go(func() error {
			err := h.DB.PingContext(ctx)
			record("postgres", err)
			return err
		})
	}
	if h.Cache != nil {
		g.Go(func() error {
			err := h.Cache.Health(ctx)
			record("redis", err)
			return err
		})
	}

	code := http.StatusOK
	if err := g.Wait(); err != nil {
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, checks)
}
