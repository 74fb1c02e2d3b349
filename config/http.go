package config

import "time"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the application (e.g., "https://app.example.com").
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// ReadTimeout bounds how long the server waits to read a request.
	ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`

	// WriteTimeout bounds how long the server spends writing a response.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 15 * time.Second
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 30 * time.Second
	}
}

// SessionConfig contains session cookie and storage configuration.
type SessionConfig struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"prepwise_session"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"SESSION_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure marks the session cookie as Secure (HTTPS only).
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// TTL is how long a session stays valid without activity.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.CookieName == "" {
		s.CookieName = "prepwise_session"
	}
	if s.TTL < time.Minute {
		s.TTL = time.Minute
	}
}
