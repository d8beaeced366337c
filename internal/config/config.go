// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Claim     ClaimConfig     `mapstructure:"claim"`
	Search    SearchConfig    `mapstructure:"search"`
	Reasoning ReasoningConfig `mapstructure:"reasoning"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// StoreConfig selects the job store backend.
type StoreConfig struct {
	Provider string `mapstructure:"provider"`
}

// RedisConfig controls the Redis connection when store.provider is "redis".
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PipelineConfig governs the worker pool.
type PipelineConfig struct {
	Workers    int `mapstructure:"workers"`
	QueueDepth int `mapstructure:"queue_depth"`
}

// ClaimConfig bounds submission input.
type ClaimConfig struct {
	MinLength int `mapstructure:"min_length"`
}

// SearchConfig configures the external search API client.
type SearchConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	MaxResults     int    `mapstructure:"max_results"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ReasoningConfig configures the external reasoning service client.
type ReasoningConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ExtractorConfig tunes the content extractor and its fetcher.
type ExtractorConfig struct {
	TimeoutSeconds     int `mapstructure:"timeout_seconds"`
	MaxRetries         int `mapstructure:"max_retries"`
	MinStructuredChars int `mapstructure:"min_structured_chars"`
	MinHeuristicChars  int `mapstructure:"min_heuristic_chars"`
	MaxContentChars    int `mapstructure:"max_content_chars"`
}

// StreamConfig tunes the SSE gateway's poll loop.
type StreamConfig struct {
	PollIntervalMs     int `mapstructure:"poll_interval_ms"`
	HeartbeatSeconds   int `mapstructure:"heartbeat_seconds"`
	MaxLifetimeSeconds int `mapstructure:"max_lifetime_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VERITAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 60)
	v.SetDefault("store.provider", "memory")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.queue_depth", 64)
	v.SetDefault("claim.min_length", 20)
	v.SetDefault("search.base_url", "https://serpapi.com/search")
	v.SetDefault("search.max_results", 2)
	v.SetDefault("search.timeout_seconds", 10)
	v.SetDefault("reasoning.model", "gpt-4o-mini")
	v.SetDefault("reasoning.max_tokens", 1000)
	v.SetDefault("reasoning.timeout_seconds", 30)
	v.SetDefault("extractor.timeout_seconds", 12)
	v.SetDefault("extractor.max_retries", 3)
	v.SetDefault("extractor.min_structured_chars", 200)
	v.SetDefault("extractor.min_heuristic_chars", 200)
	v.SetDefault("extractor.max_content_chars", 2500)
	v.SetDefault("stream.poll_interval_ms", 500)
	v.SetDefault("stream.heartbeat_seconds", 15)
	v.SetDefault("stream.max_lifetime_seconds", 0)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be > 0")
	}
	if c.Pipeline.QueueDepth <= 0 {
		return fmt.Errorf("pipeline.queue_depth must be > 0")
	}
	if c.Claim.MinLength < 1 {
		return fmt.Errorf("claim.min_length must be >= 1")
	}
	switch c.Store.Provider {
	case "memory", "redis":
	default:
		return fmt.Errorf("store.provider must be one of memory, redis")
	}
	if c.Store.Provider == "redis" && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must be set when store.provider is redis")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Extractor.MinStructuredChars <= 0 || c.Extractor.MinHeuristicChars <= 0 {
		return fmt.Errorf("extractor minimum content lengths must be > 0")
	}
	if c.Stream.PollIntervalMs <= 0 {
		return fmt.Errorf("stream.poll_interval_ms must be > 0")
	}
	if c.Stream.HeartbeatSeconds <= 0 {
		return fmt.Errorf("stream.heartbeat_seconds must be > 0")
	}
	return nil
}

// PollInterval returns the stream poll cadence as a duration.
func (c StreamConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// HeartbeatInterval returns the stream heartbeat cadence as a duration.
func (c StreamConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatSeconds) * time.Second
}

// MaxLifetime returns the optional stream lifetime bound; zero means none.
func (c StreamConfig) MaxLifetime() time.Duration {
	return time.Duration(c.MaxLifetimeSeconds) * time.Second
}
