// Package config provides centralized configuration management for
// FactLens. Values are layered: built-in defaults, an optional YAML
// config file, then FACTLENS_* environment variables.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix for all overrides, e.g.
// FACTLENS_SERVER_PORT maps to server.port.
const EnvPrefix = "FACTLENS"

// DefaultSystemPrompt steers the generation upstream toward grounded,
// verifiable answers.
const DefaultSystemPrompt = "You are FactLens, a fact-checking assistant. " +
	"Answer the user's question concisely, verify claims against current " +
	"sources when search is available, and say so plainly when something " +
	"cannot be confirmed."

// DefaultFeedURL is the front-page news source used when no feed is
// configured.
const DefaultFeedURL = "https://news.google.com/rss"

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers the built-in defaults on the supplied viper
// instance. Every key here is overridable via file or environment.
func SetDefaults(v *viper.Viper) {
	if v == nil {
		return
	}

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	// Streaming answers can run long; the write timeout stays generous.
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("cache.max_entries", 1024)
	v.SetDefault("cache.sweep_interval", "5m")

	v.SetDefault("rate_limit.limit", 50)
	v.SetDefault("rate_limit.window", "60s")
	v.SetDefault("rate_limit.sweep_interval", "5m")

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.google_search", true)
	v.SetDefault("gemini.system_prompt", DefaultSystemPrompt)

	v.SetDefault("news.mode", "headlines")
	v.SetDefault("news.feed_url", DefaultFeedURL)
	v.SetDefault("news.max_items", 5)
	v.SetDefault("news.categories", map[string]string{})

	v.SetDefault("admin.token", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "STRUCTURED")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)
}

// BindEnvironment wires FACTLENS_* environment variables into the
// supplied viper instance. Nested keys use underscores, e.g.
// FACTLENS_RATE_LIMIT_LIMIT maps to rate_limit.limit.
func BindEnvironment(v *viper.Viper) {
	if v == nil {
		return
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads an optional config file and unmarshals the merged settings
// into a typed Config. Pass an empty path to skip the file layer.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
		SetDefaults(v)
		BindEnvironment(v)
	}

	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.StringToBasicTypeHookFunc(),
	))
	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects settings the gateway cannot run with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("validate config: nil config")
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("validate config: server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("validate config: cache.ttl must be positive")
	}
	if cfg.Cache.MaxEntries <= 0 {
		return fmt.Errorf("validate config: cache.max_entries must be positive")
	}
	if cfg.RateLimit.Limit <= 0 {
		return fmt.Errorf("validate config: rate_limit.limit must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("validate config: rate_limit.window must be positive")
	}
	switch cfg.News.Mode {
	case "headlines", "digest":
	default:
		return fmt.Errorf("validate config: news.mode %q must be headlines or digest", cfg.News.Mode)
	}
	if cfg.News.Mode == "headlines" && strings.TrimSpace(cfg.News.FeedURL) == "" {
		return fmt.Errorf("validate config: news.feed_url is required in headlines mode")
	}
	if cfg.News.Mode == "digest" && len(cfg.News.Categories) == 0 {
		return fmt.Errorf("validate config: news.categories is required in digest mode")
	}
	if cfg.News.MaxItems <= 0 {
		return fmt.Errorf("validate config: news.max_items must be positive")
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}
