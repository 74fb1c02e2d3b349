package config

import "time"

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"prepwise"`
	Password string `env:"PASSWORD"                envDefault:"prepwise"`
	Name     string `env:"NAME"                    envDefault:"prepwise"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration for sessions and cache.
type RedisConfig struct {
	URI      string `env:"URI"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// CacheConfig contains TTLs for cached read-model values.
type CacheConfig struct {
	// DashboardTTL is the TTL for cached dashboard aggregates.
	DashboardTTL time.Duration `env:"CACHE_DASHBOARD_TTL" envDefault:"1m"`

	// UnviewedTTL is the TTL for cached unviewed-count values.
	UnviewedTTL time.Duration `env:"CACHE_UNVIEWED_TTL" envDefault:"30s"`
}
