// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Load layers a YAML file and SMARTHR_* environment variables on top.
package config

import (
	"context"
	"runtime"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Narrative providers.
const (
	ProviderNone   = "none"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the persistence backend: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	// StoreDSN is the sqlite file path or postgres connection string.
	StoreDSN string `koanf:"store_dsn"`

	// NarrativeProvider selects the text generation backend.
	NarrativeProvider  string `koanf:"narrative_provider"`
	NarrativeModel     string `koanf:"narrative_model"`
	NarrativeAPIKey    string `koanf:"narrative_api_key"`
	NarrativeBaseURL   string `koanf:"narrative_base_url"`
	NarrativeTimeoutMS int    `koanf:"narrative_timeout_ms"`

	// NarrativeCacheAddr enables the redis response cache when set (host:port).
	NarrativeCacheAddr       string `koanf:"narrative_cache_addr"`
	NarrativeCacheTTLSeconds int    `koanf:"narrative_cache_ttl_seconds"`

	// PromptsFile optionally overrides the built-in prompt templates (TOML).
	PromptsFile string `koanf:"prompts_file"`

	// RescoreQueueSize bounds the in-memory rescore queue.
	RescoreQueueSize int `koanf:"rescore_queue_size"`
	// RescoreWorkers sets the number of rescore workers.
	RescoreWorkers int `koanf:"rescore_workers"`
	// DedupeSize bounds the pending-rescore tracker.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxListLimit caps list endpoints' ?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// RateLimitRPS and RateLimitBurst configure the global request limiter. Zero disables it.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// CORSOrigins is a comma separated list of allowed origins ("*" allows all).
	CORSOrigins string `koanf:"cors_origins"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":4004",
		StoreDriver:              DriverMemory,
		StoreDSN:                 "",
		NarrativeProvider:        ProviderNone,
		NarrativeModel:           "",
		NarrativeTimeoutMS:       30_000,
		NarrativeCacheTTLSeconds: 3600,
		RescoreQueueSize:         10_000,
		RescoreWorkers:           runtime.NumCPU(),
		DedupeSize:               50_000,
		MaxListLimit:             500,
		RateLimitRPS:             0,
		RateLimitBurst:           50,
		CORSOrigins:              "*",
	}
}

// NarrativeTimeout returns the narrative call timeout as a duration.
func (c *Config) NarrativeTimeout() time.Duration {
	return time.Duration(c.NarrativeTimeoutMS) * time.Millisecond
}

// NarrativeCacheTTL returns the cache TTL as a duration.
func (c *Config) NarrativeCacheTTL() time.Duration {
	return time.Duration(c.NarrativeCacheTTLSeconds) * time.Second
}

// DefaultModel returns the model configured for the provider, or the
// provider's default when none is set.
func (c *Config) DefaultModel() string {
	if c.NarrativeModel != "" {
		return c.NarrativeModel
	}
	switch c.NarrativeProvider {
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderClaude:
		return "claude-3-5-haiku-latest"
	default:
		return ""
	}
}
