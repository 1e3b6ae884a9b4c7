package config

import (
	"fmt"
	"time"
)

// GetProfile returns a configuration for the specified profile name.
// Available profiles: default, low-latency, high-throughput, burst, sustained.
// Returns an error if the profile name is not recognized.
func GetProfile(name string) (*Config, error) {
	switch name {
	case "default", "":
		return DefaultProfile(), nil
	case "low-latency":
		return LowLatencyProfile(), nil
	case "high-throughput":
		return HighThroughputProfile(), nil
	case "burst":
		return BurstProfile(), nil
	case "sustained":
		return SustainedProfile(), nil
	default:
		return nil, fmt.Errorf("unknown profile: %s (available profiles: %v)", name, ListProfiles())
	}
}

// ListProfiles returns a list of all available profile names.
func ListProfiles() []string {
	return GetAvailableProfiles()
}

// ApplyProfile applies a predefined profile to the configuration in place.
// If the profile name is not recognized, the configuration is left unchanged.
func ApplyProfile(cfg *Config, profile string) {
	switch profile {
	case "low-latency":
		applyLowLatencyProfile(cfg)
	case "high-throughput":
		applyHighThroughputProfile(cfg)
	case "burst":
		applyBurstProfile(cfg)
	case "sustained":
		applySustainedProfile(cfg)
	default:
		// Keep default/current config
	}
}

// DefaultProfile returns a balanced configuration suitable for general use.
func DefaultProfile() *Config {
	return DefaultConfig("")
}

// LowLatencyProfile returns a configuration optimized for minimal publish
// latency.
// Characteristics:
//   - Batching disabled: every publish is sent directly
//   - A single partition to minimise broker fan-out
//   - Rate limited to 1000 msg/s in the demo load generator
//   - Fine-grained metrics collection (100ms intervals)
func LowLatencyProfile() *Config {
	cfg := DefaultConfig("")
	applyLowLatencyProfile(cfg)
	return cfg
}

// HighThroughputProfile returns a configuration optimized for maximum
// message throughput.
// Characteristics:
//   - Large batches (10000 messages) for efficiency
//   - Many partitions (16) for broker-side parallelism
//   - No rate limiting for maximum speed
func HighThroughputProfile() *Config {
	cfg := DefaultConfig("")
	applyHighThroughputProfile(cfg)
	return cfg
}

// BurstProfile returns a configuration optimized for bursty traffic
// patterns.
// Characteristics:
//   - Medium batch sizes (5000) for balance
//   - 8 partitions for parallelism
//   - Rate limited to 10000 msg/s with a 5 minute demo duration
//   - Medium-frequency metrics (500ms intervals)
func BurstProfile() *Config {
	cfg := DefaultConfig("")
	applyBurstProfile(cfg)
	return cfg
}

// SustainedProfile returns a configuration for long-running sustained
// load.
// Characteristics:
//   - Balanced batch settings for stability
//   - 8 partitions for parallelism
//   - Rate limited to 5000 msg/s for sustainability
//   - Unlimited demo duration, metrics export enabled for analysis
func SustainedProfile() *Config {
	cfg := DefaultConfig("")
	applySustainedProfile(cfg)
	return cfg
}

func applyLowLatencyProfile(cfg *Config) {
	cfg.Pulsar.NumPartitions = 1

	cfg.Actor.BatchEnabled = false // disable batching for lowest latency
	cfg.Actor.RefreshInterval = 60 * time.Second
	cfg.Actor.TerminationTimeout = 1 * time.Second

	cfg.Performance.MessageSize = 512
	cfg.Performance.TargetThroughput = 1000
	cfg.Performance.RateLimitEnabled = true

	cfg.Metrics.CollectionInterval = 100 * time.Millisecond
	cfg.Metrics.HistogramBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}
}

func applyHighThroughputProfile(cfg *Config) {
	cfg.Pulsar.NumPartitions = 16

	cfg.Actor.BatchEnabled = true
	cfg.Actor.BatchSize = 10000
	cfg.Actor.FlushInterval = 50 * time.Millisecond

	cfg.Performance.MessageSize = 4096
	cfg.Performance.TargetThroughput = 0 // unlimited
	cfg.Performance.RateLimitEnabled = false

	cfg.Metrics.CollectionInterval = 1 * time.Second
}

func applyBurstProfile(cfg *Config) {
	cfg.Pulsar.NumPartitions = 8

	cfg.Actor.BatchEnabled = true
	cfg.Actor.BatchSize = 5000
	cfg.Actor.FlushInterval = 200 * time.Millisecond

	cfg.Performance.MessageSize = 2048
	cfg.Performance.TargetThroughput = 10000
	cfg.Performance.RateLimitEnabled = true
	cfg.Performance.Duration = 5 * time.Minute

	cfg.Metrics.CollectionInterval = 500 * time.Millisecond
}

func applySustainedProfile(cfg *Config) {
	cfg.Pulsar.NumPartitions = 8

	cfg.Actor.BatchEnabled = true
	cfg.Actor.BatchSize = 1000
	cfg.Actor.FlushInterval = 100 * time.Millisecond

	cfg.Performance.MessageSize = 1024
	cfg.Performance.TargetThroughput = 5000
	cfg.Performance.RateLimitEnabled = true
	cfg.Performance.Duration = 0 // unlimited

	cfg.Metrics.CollectionInterval = 1 * time.Second
	cfg.Metrics.ExportEnabled = true
}

// GetAvailableProfiles returns a list of available profile names.
func GetAvailableProfiles() []string {
	return []string{
		"default",
		"low-latency",
		"high-throughput",
		"burst",
		"sustained",
	}
}

// GetProfileDescription returns a description for a profile.
func GetProfileDescription(profile string) string {
	descriptions := map[string]string{
		"default":         "Balanced configuration suitable for general use",
		"low-latency":     "Optimized for minimal publish latency (batching disabled, single partition)",
		"high-throughput": "Optimized for maximum message throughput (large batches, many partitions)",
		"burst":           "Simulates bursty traffic with rate limiting",
		"sustained":       "Long-running sustained load with metrics export enabled",
	}
	return descriptions[profile]
}
