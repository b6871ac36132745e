// Package config holds the engine configuration, its defaults, and the
// koanf-based YAML loader.
package config

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// RetryConfig controls retries of external classifier calls
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first
	MaxAttempts int `koanf:"max_attempts"`

	// Backoff is the delay before the first retry
	Backoff time.Duration `koanf:"backoff"`

	// Multiplier scales the backoff after each failed attempt
	Multiplier float64 `koanf:"multiplier"`
}

// ClassifierConfig selects the semantic classifier model
type ClassifierConfig struct {
	Model     string `koanf:"model"`
	MaxTokens int    `koanf:"max_tokens"`
}

// EmbeddingConfig selects the embedding model and cache size
type EmbeddingConfig struct {
	Model     string `koanf:"model"`
	CacheSize int    `koanf:"cache_size"`
}

// Config holds all tunables of the discovery and query engine
type Config struct {
	// LogLevel is the logging level (debug, info, warn, error)
	LogLevel string `koanf:"log_level"`

	// TemporalWindowDays bounds candidate selection to events within
	// +-N days of the source event
	TemporalWindowDays int `koanf:"temporal_window_days"`

	// MaxCandidates caps the candidates proposed per source event
	MaxCandidates int `koanf:"max_candidates"`

	// BatchSize is the number of candidates per classifier request
	BatchSize int `koanf:"batch_size"`

	// CacheTTL is how long a cached relationship stays fresh
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// PendingTTL is how long an edge with a missing endpoint is parked
	PendingTTL time.Duration `koanf:"pending_ttl"`

	// ConfidenceFloor prunes ripple propagation: paths whose weakest
	// hop falls below the floor are not expanded further
	ConfidenceFloor float64 `koanf:"confidence_floor"`

	// RootConfidenceThreshold disqualifies weak incoming edges when
	// deciding whether an event is a root cause candidate
	RootConfidenceThreshold float64 `koanf:"root_confidence_threshold"`

	// LoopConfidenceThreshold restricts feedback loop detection to
	// edges at or above this confidence
	LoopConfidenceThreshold float64 `koanf:"loop_confidence_threshold"`

	// LookbackDays bounds how far back root-cause search considers
	// incoming edges
	LookbackDays int `koanf:"lookback_days"`

	// MaxDepth bounds backward/forward traversal depth
	MaxDepth int `koanf:"max_depth"`

	// MaxPathHops bounds path finding between two events
	MaxPathHops int `koanf:"max_path_hops"`

	// HubPercentile is the degree percentile above which a node counts
	// as a hub (0..1)
	HubPercentile float64 `koanf:"hub_percentile"`

	// MaxConcurrentBatches bounds concurrent classifier batches across
	// independent source events
	MaxConcurrentBatches int `koanf:"max_concurrent_batches"`

	Retry      RetryConfig      `koanf:"retry"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Embedding  EmbeddingConfig  `koanf:"embedding"`
}

// DefaultConfig returns the configuration defaults
func DefaultConfig() *Config {
	return &Config{
		LogLevel:                "info",
		TemporalWindowDays:      30,
		MaxCandidates:           15,
		BatchSize:               5,
		CacheTTL:                24 * time.Hour,
		PendingTTL:              time.Hour,
		ConfidenceFloor:         0.5,
		RootConfidenceThreshold: 0.3,
		LoopConfidenceThreshold: 0.6,
		LookbackDays:            90,
		MaxDepth:                5,
		MaxPathHops:             6,
		HubPercentile:           0.90,
		MaxConcurrentBatches:    4,
		Retry: RetryConfig{
			MaxAttempts: 3,
			Backoff:     500 * time.Millisecond,
			Multiplier:  2.0,
		},
		Classifier: ClassifierConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 2048,
		},
		Embedding: EmbeddingConfig{
			Model:     "voyage-3-lite",
			CacheSize: 4096,
		},
	}
}

// Load reads a YAML configuration file over the defaults and validates
// the result. An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed for %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	if c.TemporalWindowDays < 1 {
		return NewConfigError("temporal_window_days must be at least 1")
	}
	if c.MaxCandidates < 1 {
		return NewConfigError("max_candidates must be at least 1")
	}
	if c.BatchSize < 1 {
		return NewConfigError("batch_size must be at least 1")
	}
	if c.CacheTTL <= 0 {
		return NewConfigError("cache_ttl must be positive")
	}
	if c.PendingTTL <= 0 {
		return NewConfigError("pending_ttl must be positive")
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return NewConfigError("confidence_floor must be in [0,1]")
	}
	if c.RootConfidenceThreshold < 0 || c.RootConfidenceThreshold > 1 {
		return NewConfigError("root_confidence_threshold must be in [0,1]")
	}
	if c.LoopConfidenceThreshold < 0 || c.LoopConfidenceThreshold > 1 {
		return NewConfigError("loop_confidence_threshold must be in [0,1]")
	}
	if c.LookbackDays < 1 {
		return NewConfigError("lookback_days must be at least 1")
	}
	if c.MaxDepth < 1 {
		return NewConfigError("max_depth must be at least 1")
	}
	if c.MaxPathHops < 1 {
		return NewConfigError("max_path_hops must be at least 1")
	}
	if c.HubPercentile < 0 || c.HubPercentile > 1 {
		return NewConfigError("hub_percentile must be in [0,1]")
	}
	if c.MaxConcurrentBatches < 1 {
		return NewConfigError("max_concurrent_batches must be at least 1")
	}
	if c.Retry.MaxAttempts < 1 {
		return NewConfigError("retry.max_attempts must be at least 1")
	}
	if c.Retry.Backoff < 0 {
		return NewConfigError("retry.backoff must be non-negative")
	}
	if c.Retry.Multiplier < 1 {
		return NewConfigError("retry.multiplier must be at least 1")
	}
	if c.Embedding.CacheSize < 1 {
		return NewConfigError("embedding.cache_size must be at least 1")
	}
	return nil
}

// TemporalWindow returns the temporal window as a duration
func (c *Config) TemporalWindow() time.Duration {
	return time.Duration(c.TemporalWindowDays) * 24 * time.Hour
}

// Lookback returns the root-cause lookback window as a duration
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

// Error returns the error message
func (e *ConfigError) Error() string {
	return e.message
}
