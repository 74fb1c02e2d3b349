package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prepwise/interview-api/config"
	"github.com/prepwise/interview-api/internal/adapters/anthropic"
	"github.com/prepwise/interview-api/internal/adapters/feedbackrunner"
	"github.com/prepwise/interview-api/internal/adapters/reaper"
	redisadapter "github.com/prepwise/interview-api/internal/adapters/redis"
	"github.com/prepwise/interview-api/internal/core"
	"github.com/prepwise/interview-api/internal/data"
	"github.com/prepwise/interview-api/internal/observability/statsd"
	"github.com/prepwise/interview-api/internal/service"
	"github.com/redis/go-redis/v9"
)

// ServiceContainer holds all initialized services.
type ServiceContainer struct {
	Jobs       *service.JobService
	Interviews *service.InterviewService
	Reports    *service.ReportService

	Sessions core.SessionStore
	Cache    core.CacheRepository
	Chat     core.ChatCompleter

	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB            *sql.DB
	Redis         redis.UniversalClient
	JobRepo       *data.JobRepo
	InterviewRepo *data.InterviewRepo
	CacheRepo     *data.RedisCacheRepo
	Sessions      *redisadapter.SessionStore
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.StatsdPrefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient, logger *slog.Logger) *serviceRepositories {
	repos := &serviceRepositories{
		DB:            db,
		Redis:         redisClient,
		JobRepo:       data.NewJobRepo(db, data.RepoConfig{Logger: logger}),
		InterviewRepo: data.NewInterviewRepo(db, data.InterviewRepoConfig{Logger: logger}),
	}
	if redisClient != nil {
		repos.CacheRepo = data.NewRedisCacheRepo(redisClient)
		repos.Sessions = redisadapter.NewSessionStore(redisClient)
	}
	return repos
}

// buildChatCompleter builds the Anthropic gateway when an API key is
// configured. Services that need chat validate its presence at startup.
func buildChatCompleter(cfg config.LLMConfig, logger *slog.Logger) (core.ChatCompleter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil //nolint:nilnil // absence of a chat gateway is a valid configuration
	}

	client, err := anthropic.NewClient(anthropic.Config{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		Timeout:           cfg.Timeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if err != nil {
		return nil, fmt.Errorf("create anthropic client: %w", err)
	}

	if logger != nil {
		logger.Info("chat completer configured", "model", cfg.Model)
	}
	return client, nil
}

// NewServices initializes all services with their dependencies.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observability := buildObservability(logger, deps.Config.Observability)
	repos := buildRepositories(deps.DB, deps.RedisClient, logger)

	chat, err := buildChatCompleter(deps.Config.LLM, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	jobSvc, err := service.NewJobService(service.JobServiceOptions{
		Repo:         repos.JobRepo,
		DefaultLease: deps.Config.FeedbackRunner.JobLease,
		Logger:       logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create job service: %w", err)
	}

	var cache core.CacheRepository
	if repos.CacheRepo != nil {
		cache = repos.CacheRepo
	}

	interviewSvc, err := service.NewInterviewService(service.InterviewServiceOptions{
		Interviews:   repos.InterviewRepo,
		Jobs:         jobSvc,
		Chat:         chat,
		Cache:        cache,
		Logger:       logger,
		DashboardTTL: deps.Config.Cache.DashboardTTL,
		UnviewedTTL:  deps.Config.Cache.UnviewedTTL,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create interview service: %w", err)
	}

	reportSvc, err := service.NewReportService(service.ReportServiceOptions{
		Jobs: repos.JobRepo,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create report service: %w", err)
	}

	var sessions core.SessionStore
	if repos.Sessions != nil {
		sessions = repos.Sessions
	}

	return ServiceContainer{
		Jobs:          jobSvc,
		Interviews:    interviewSvc,
		Reports:       reportSvc,
		Sessions:      sessions,
		Cache:         cache,
		Chat:          chat,
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains dependencies for running services.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		DB:       deps.cfg.DB,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				deps.logger.WarnContext(ctx, "dropping background service error",
					"service", descriptor.name,
					"error", errMsg,
				)
			}
		}
	}()

	deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)

	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newFeedbackRunnerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeFeedbackRunner,
		name: "feedback runner",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			if deps.cfg.Services.Chat == nil {
				return errors.New("feedback runner requires ANTHROPIC_API_KEY")
			}
			var runnerCfg config.FeedbackRunnerConfig
			if deps.cfg.Config != nil {
				runnerCfg = deps.cfg.Config.FeedbackRunner
			}
			runner, err := feedbackrunner.NewRunner(feedbackrunner.RunnerOptions{
				DB:                deps.cfg.DB,
				Logger:            deps.logger,
				Chat:              deps.cfg.Services.Chat,
				Lease:             runnerCfg.JobLease,
				Concurrency:       runnerCfg.Concurrency,
				HeartbeatInterval: runnerCfg.HeartbeatInterval,
				Metrics:           deps.cfg.Services.Observability.MetricsSink,
			})
			if err != nil {
				return fmt.Errorf("create feedback runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			var reaperCfg config.ReaperConfig
			if deps.cfg.Config != nil {
				reaperCfg = deps.cfg.Config.Reaper
			}
			runner, err := reaper.NewRunner(reaper.RunnerOptions{
				DB:      deps.cfg.DB,
				Config:  reaperCfg,
				Logger:  deps.logger,
				Metrics: deps.cfg.Services.Observability.MetricsSink,
			})
			if err != nil {
				return fmt.Errorf("create reaper runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newFeedbackRunnerBackgroundService(deps),
		newReaperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	ctx := context.Background()
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		jobService:  cfg.Services.Jobs,
		metrics:     cfg.Services.Observability.MetricsSink,
		logger:      logger,
		backgrounds: result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	size := errorChannelCapacity(enabled) + 1
	if size < 1 {
		return 1
	}
	return size
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	jobService  *service.JobService
	metrics     *statsd.Client
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	// Gracefully stop HTTP server if running
	if cfg.httpServer != nil {
		// Create a timeout context for HTTP shutdown
		shutdownCtx, cancel := context.WithTimeout(cfg.ctx, shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context:    shutdownCtx,
			Server:     cfg.httpServer,
			JobService: cfg.jobService,
			Logger:     cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if cfg.metrics != nil {
		if err := cfg.metrics.Close(); err != nil {
			cfg.logger.Warn("close metrics sink", "error", err)
		}
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
