package config

import (
	"time"
)

// Config represents the complete application configuration. Values are
// layered: built-in defaults, then an optional config file, then
// FACTLENS_* environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	News      NewsConfig      `mapstructure:"news"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CacheConfig contains answer cache configuration.
type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	MaxEntries    int           `mapstructure:"max_entries"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// RateLimitConfig contains the per-client request limiter settings.
type RateLimitConfig struct {
	Limit         int           `mapstructure:"limit"`
	Window        time.Duration `mapstructure:"window"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// GeminiConfig contains the generation upstream settings. The API key
// comes from FACTLENS_GEMINI_API_KEY or a .env file; it is never
// written to config files.
type GeminiConfig struct {
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	GoogleSearch bool   `mapstructure:"google_search"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// NewsConfig contains the feed aggregation settings. Mode selects
// between a single-feed headline list and a multi-category digest.
type NewsConfig struct {
	Mode       string            `mapstructure:"mode"`
	FeedURL    string            `mapstructure:"feed_url"`
	MaxItems   int               `mapstructure:"max_items"`
	Categories map[string]string `mapstructure:"categories"`
}

// AdminConfig guards the administrative endpoints. An empty token
// leaves them open, which is only sensible behind a trusted proxy.
type AdminConfig struct {
	Token string `mapstructure:"token"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles:
// - SIMPLE: Console output only, minimal configuration (CLI tools)
// - STRUCTURED: Structured sinks, correlation IDs (API services)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}
