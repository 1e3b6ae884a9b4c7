package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pulsar-local-lab/partition-producer/internal/actor"
)

// Config is the top-level configuration for a partitioned producer run:
// which broker/topic to bind to, how each partition's actor is tuned, and
// how the demo load generator and its metrics behave.
//
// Example JSON configuration (durations are time.Duration values, encoded
// as integer nanoseconds):
//
//	{
//	  "pulsar": {
//	    "service_url": "pulsar://localhost:6650",
//	    "admin_url": "http://localhost:8080",
//	    "topic": "persistent://public/default/orders",
//	    "num_partitions": 4
//	  },
//	  "actor": {
//	    "batch_enabled": true,
//	    "batch_size": 1000,
//	    "flush_interval": 100000000,
//	    "refresh_interval": 60000000000,
//	    "termination_timeout": 3000000000
//	  },
//	  "performance": {
//	    "target_throughput": 10000,
//	    "message_size": 1024,
//	    "rate_limit_enabled": true
//	  },
//	  "metrics": {
//	    "collection_interval": 1000000000,
//	    "histogram_buckets": [1, 5, 10, 25, 50, 100, 250, 500, 1000],
//	    "export_enabled": true,
//	    "export_path": "./metrics"
//	  }
//	}
type Config struct {
	Pulsar      PulsarConfig      `json:"pulsar"`
	Actor       ActorConfig       `json:"actor"`
	Performance PerformanceConfig `json:"performance"`
	Metrics     MetricsConfig     `json:"metrics"`
}

// PulsarConfig contains the broker/topic the router binds its actors to.
type PulsarConfig struct {
	// ServiceURL is the Pulsar broker service URL (e.g., pulsar://localhost:6650).
	ServiceURL string `json:"service_url"`

	// AdminURL is the Pulsar admin API URL (e.g., http://localhost:8080),
	// used for topic lookup and topic creation.
	AdminURL string `json:"admin_url"`

	// Topic is the logical (un-sharded) Pulsar topic name.
	Topic string `json:"topic"`

	// NumPartitions is how many partition actors the router constructs.
	NumPartitions int `json:"num_partitions"`
}

// ActorConfig mirrors internal/actor.Options in JSON-friendly form.
type ActorConfig struct {
	// BatchEnabled turns on size/time-triggered software batching.
	BatchEnabled bool `json:"batch_enabled"`

	// BatchSize is the number of queued messages that triggers a dispatch.
	BatchSize int `json:"batch_size"`

	// FlushInterval is the time-trigger for dispatching a partial batch.
	FlushInterval time.Duration `json:"flush_interval"`

	// RefreshInterval is the base period between broker-binding checks
	// (jitter is applied on top of this at runtime).
	RefreshInterval time.Duration `json:"refresh_interval"`

	// TerminationTimeout bounds the backoff an actor sleeps before exiting
	// on an abnormal termination.
	TerminationTimeout time.Duration `json:"termination_timeout"`
}

// ToOptions converts ActorConfig into the actor.Options every partition's
// Start call consumes; normalize()'s floors/ceiling still apply on top of
// whatever this produces.
func (a ActorConfig) ToOptions() actor.Options {
	return actor.Options{
		BatchEnabled:       a.BatchEnabled,
		BatchSize:          a.BatchSize,
		FlushInterval:      a.FlushInterval,
		RefreshInterval:    a.RefreshInterval,
		TerminationTimeout: a.TerminationTimeout,
	}
}

// PerformanceConfig drives the demo load generator (cmd/producer), not the
// actor itself: the actor has no internal rate limiting or duration cap.
type PerformanceConfig struct {
	// TargetThroughput is the target messages per second (0 = unlimited).
	TargetThroughput int `json:"target_throughput"`

	// MessageSize is the size in bytes of each synthetic payload.
	MessageSize int `json:"message_size"`

	// Duration is how long the load generator runs (0 = unlimited).
	Duration time.Duration `json:"duration"`

	// RateLimitEnabled turns on pkg/ratelimit shaping in the load generator.
	RateLimitEnabled bool `json:"rate_limit_enabled"`
}

// MetricsConfig contains metrics collection settings.
type MetricsConfig struct {
	// CollectionInterval is the interval for collecting metrics snapshots.
	CollectionInterval time.Duration `json:"collection_interval"`

	// HistogramBuckets defines the latency histogram bucket boundaries in milliseconds.
	HistogramBuckets []float64 `json:"histogram_buckets"`

	// ExportEnabled enables exporting metrics to files.
	ExportEnabled bool `json:"export_enabled"`

	// ExportPath is the directory path for exported metrics.
	ExportPath string `json:"export_path"`
}

// LoadConfig loads configuration from a file or returns defaults.
// If path is empty, returns the default configuration with the specified profile applied.
func LoadConfig(path string, profile string) (*Config, error) {
	if path == "" {
		return DefaultConfig(profile), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// Environment variables take precedence over default values.
// Supported environment variables:
//   - PULSAR_SERVICE_URL: Pulsar broker service URL
//   - PULSAR_ADMIN_URL: Pulsar admin API URL
//   - PULSAR_TOPIC: Pulsar topic name
//   - PULSAR_NUM_PARTITIONS: number of partitions
//   - ACTOR_BATCH_ENABLED: enable software batching (true/false)
//   - ACTOR_BATCH_SIZE: batch size trigger
//   - ACTOR_FLUSH_INTERVAL: flush interval (e.g., "100ms")
//   - ACTOR_REFRESH_INTERVAL: broker refresh interval (e.g., "60s")
//   - ACTOR_TERMINATION_TIMEOUT: termination backoff cap (e.g., "3s")
//   - PERFORMANCE_TARGET_RATE: target message rate per second
//   - PERFORMANCE_MESSAGE_SIZE: synthetic message size in bytes
//   - METRICS_COLLECTION_INTERVAL: metrics collection interval
//   - METRICS_ENABLE_EXPORT: enable metrics export (true/false)
//   - METRICS_EXPORT_PATH: path for exported metrics
func LoadConfigFromEnv() (*Config, error) {
	cfg := DefaultConfig("")

	if v := os.Getenv("PULSAR_SERVICE_URL"); v != "" {
		cfg.Pulsar.ServiceURL = v
	}
	if v := os.Getenv("PULSAR_ADMIN_URL"); v != "" {
		cfg.Pulsar.AdminURL = v
	}
	if v := os.Getenv("PULSAR_TOPIC"); v != "" {
		cfg.Pulsar.Topic = v
	}
	if v := os.Getenv("PULSAR_NUM_PARTITIONS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			cfg.Pulsar.NumPartitions = val
		}
	}

	if v := os.Getenv("ACTOR_BATCH_ENABLED"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.Actor.BatchEnabled = val
		}
	}
	if v := os.Getenv("ACTOR_BATCH_SIZE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			cfg.Actor.BatchSize = val
		}
	}
	if v := os.Getenv("ACTOR_FLUSH_INTERVAL"); v != "" {
		if val, err := time.ParseDuration(v); err == nil {
			cfg.Actor.FlushInterval = val
		}
	}
	if v := os.Getenv("ACTOR_REFRESH_INTERVAL"); v != "" {
		if val, err := time.ParseDuration(v); err == nil {
			cfg.Actor.RefreshInterval = val
		}
	}
	if v := os.Getenv("ACTOR_TERMINATION_TIMEOUT"); v != "" {
		if val, err := time.ParseDuration(v); err == nil {
			cfg.Actor.TerminationTimeout = val
		}
	}

	if v := os.Getenv("PERFORMANCE_TARGET_RATE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			cfg.Performance.TargetThroughput = val
		}
	}
	if v := os.Getenv("PERFORMANCE_MESSAGE_SIZE"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			cfg.Performance.MessageSize = val
		}
	}

	if v := os.Getenv("METRICS_COLLECTION_INTERVAL"); v != "" {
		if val, err := time.ParseDuration(v); err == nil {
			cfg.Metrics.CollectionInterval = val
		}
	}
	if v := os.Getenv("METRICS_ENABLE_EXPORT"); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.ExportEnabled = val
		}
	}
	if v := os.Getenv("METRICS_EXPORT_PATH"); v != "" {
		cfg.Metrics.ExportPath = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a default configuration with the specified profile applied.
// If profile is empty or "default", returns base defaults without profile modifications.
func DefaultConfig(profile string) *Config {
	cfg := &Config{
		Pulsar: PulsarConfig{
			ServiceURL:    "pulsar://localhost:6650",
			AdminURL:      "http://localhost:8080",
			Topic:         "persistent://public/default/orders",
			NumPartitions: 4,
		},
		Actor: ActorConfig{
			BatchEnabled:       true,
			BatchSize:          100,
			FlushInterval:      100 * time.Millisecond,
			RefreshInterval:    60 * time.Second,
			TerminationTimeout: 3 * time.Second,
		},
		Performance: PerformanceConfig{
			TargetThroughput: 0, // unlimited
			MessageSize:      1024,
			Duration:         0, // unlimited
			RateLimitEnabled: false,
		},
		Metrics: MetricsConfig{
			CollectionInterval: 1 * time.Second,
			HistogramBuckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			ExportEnabled:      false,
			ExportPath:         "./metrics",
		},
	}

	if profile != "" && profile != "default" {
		ApplyProfile(cfg, profile)
	}

	return cfg
}

// Validate validates the configuration and returns an error if any values are invalid.
func (c *Config) Validate() error {
	if c.Pulsar.ServiceURL == "" {
		return fmt.Errorf("pulsar service URL is required")
	}
	if c.Pulsar.Topic == "" {
		return fmt.Errorf("pulsar topic is required")
	}
	if c.Pulsar.NumPartitions <= 0 {
		return fmt.Errorf("num_partitions must be positive, got %d", c.Pulsar.NumPartitions)
	}

	if c.Actor.BatchSize < 0 {
		return fmt.Errorf("actor batch size must be non-negative, got %d", c.Actor.BatchSize)
	}
	if c.Actor.FlushInterval < 0 {
		return fmt.Errorf("actor flush interval must be non-negative, got %v", c.Actor.FlushInterval)
	}
	if c.Actor.RefreshInterval < 0 {
		return fmt.Errorf("actor refresh interval must be non-negative, got %v", c.Actor.RefreshInterval)
	}
	if c.Actor.TerminationTimeout < 0 {
		return fmt.Errorf("actor termination timeout must be non-negative, got %v", c.Actor.TerminationTimeout)
	}

	if c.Performance.TargetThroughput < 0 {
		return fmt.Errorf("target throughput must be non-negative, got %d", c.Performance.TargetThroughput)
	}
	if c.Performance.MessageSize <= 0 {
		return fmt.Errorf("message size must be positive, got %d", c.Performance.MessageSize)
	}
	if c.Performance.Duration < 0 {
		return fmt.Errorf("duration must be non-negative, got %v", c.Performance.Duration)
	}

	if c.Metrics.CollectionInterval <= 0 {
		return fmt.Errorf("metrics collection interval must be positive, got %v", c.Metrics.CollectionInterval)
	}
	if c.Metrics.ExportEnabled && c.Metrics.ExportPath == "" {
		return fmt.Errorf("metrics export path is required when export is enabled")
	}

	return nil
}

// Save saves the configuration to a JSON file at the specified path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid configuration: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
