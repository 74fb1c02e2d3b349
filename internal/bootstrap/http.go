package bootstrap

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/prepwise/interview-api/config"
	httpx "github.com/prepwise/interview-api/internal/http"
	"github.com/prepwise/interview-api/internal/service"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	// The router applies logging and panic recovery itself.
	handler := httpx.NewRouter(httpx.RouterServices{
		Jobs:       cfg.Services.Jobs,
		Interviews: cfg.Services.Interviews,
		Reports:    cfg.Services.Reports,
		Sessions:   cfg.Services.Sessions,
		CookieName: appCfg.Session.CookieName,
		DB:         cfg.DB,
		Cache:      cfg.Services.Cache,
		Logger:     logger,
	})

	// Start server (logs "starting HTTP server" internally)
	return startServer(logger, handler, appCfg.HTTP)
}

func startServer(logger *slog.Logger, handler http.Handler, cfg config.HTTPConfig) *http.Server {
	addr := cfg.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context    context.Context
	Server     *http.Server
	JobService *service.JobService
	Logger     *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	// Stop job service listeners first so long-poll handlers drain
	if cfg.JobService != nil {
		cfg.JobService.StopAllListeners()
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(cfg.Context, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
