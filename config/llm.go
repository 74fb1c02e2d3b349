package config

import (
	"strings"
	"time"
)

// LLMConfig contains configuration for the LLM provider used to generate
// interview feedback, follow-up questions, and greetings.
type LLMConfig struct {
	// APIKey authenticates against the Anthropic Messages API.
	// Required when the http or feedback-runner services are enabled.
	APIKey string `env:"ANTHROPIC_API_KEY"`

	// BaseURL overrides the API endpoint. Useful for proxies and tests.
	BaseURL string `env:"ANTHROPIC_BASE_URL" envDefault:""`

	// Model is the default model for all completions.
	Model string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`

	// Timeout bounds a single completion request.
	Timeout time.Duration `env:"ANTHROPIC_TIMEOUT" envDefault:"60s"`

	// RequestsPerMinute throttles outbound API calls across all workers.
	// Zero disables throttling.
	RequestsPerMinute int `env:"ANTHROPIC_REQUESTS_PER_MINUTE" envDefault:"50"`
}

// Sanitize applies guardrails to LLM configuration values.
func (l *LLMConfig) Sanitize() {
	l.APIKey = strings.TrimSpace(l.APIKey)
	l.BaseURL = strings.TrimSpace(l.BaseURL)
	if l.Timeout <= 0 {
		l.Timeout = 60 * time.Second
	}
	if l.RequestsPerMinute < 0 {
		l.RequestsPerMinute = 0
	}
}
