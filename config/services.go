package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeFeedbackRunner runs the interview feedback job runner.
	ServiceModeFeedbackRunner ServiceMode = "feedback-runner"
	// ServiceModeReaper runs the job reaper for cleanup.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeFeedbackRunner,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeFeedbackRunner, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, feedback-runner, reaper)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// FeedbackRunnerConfig contains feedback runner service configuration.
type FeedbackRunnerConfig struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int `env:"FEEDBACK_RUNNER_CONCURRENCY" envDefault:"3"`

	// JobLease is the duration to lease a feedback job.
	JobLease time.Duration `env:"FEEDBACK_RUNNER_JOB_LEASE" envDefault:"120s"`

	// HeartbeatInterval is how often a worker extends the lease on a running job.
	HeartbeatInterval time.Duration `env:"FEEDBACK_RUNNER_HEARTBEAT_INTERVAL" envDefault:"30s"`
}

// Sanitize applies guardrails to feedback runner configuration values.
func (f *FeedbackRunnerConfig) Sanitize() {
	if f.Concurrency < 1 {
		f.Concurrency = 1
	}
	if f.JobLease < 5*time.Second {
		f.JobLease = 5 * time.Second
	}
	if f.HeartbeatInterval <= 0 || f.HeartbeatInterval >= f.JobLease {
		f.HeartbeatInterval = f.JobLease / 4
	}
}

// ReaperConfig contains job reaper service configuration.
type ReaperConfig struct {
	// Interval is the reaper tick interval.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`

	// CompletedMaxAge is the maximum age for completed jobs before deletion.
	CompletedMaxAge time.Duration `env:"REAPER_COMPLETED_MAX_AGE" envDefault:"168h"` // 7 days

	// BatchSize is the maximum number of rows to process per operation.
	// Batching prevents long locks and I/O spikes on large tables.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"1000"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	// Enforce minimum intervals to prevent excessive database load
	if r.Interval < 1*time.Minute {
		r.Interval = 1 * time.Minute
	}
	if r.CompletedMaxAge < 1*time.Hour {
		r.CompletedMaxAge = 1 * time.Hour
	}

	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
	if r.BatchSize > 10000 {
		r.BatchSize = 10000
	}
}
