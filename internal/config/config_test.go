package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("")

	if cfg.Pulsar.ServiceURL != "pulsar://localhost:6650" {
		t.Errorf("expected service URL pulsar://localhost:6650, got %s", cfg.Pulsar.ServiceURL)
	}
	if cfg.Pulsar.AdminURL != "http://localhost:8080" {
		t.Errorf("expected admin URL http://localhost:8080, got %s", cfg.Pulsar.AdminURL)
	}
	if cfg.Pulsar.Topic != "persistent://public/default/orders" {
		t.Errorf("expected topic persistent://public/default/orders, got %s", cfg.Pulsar.Topic)
	}
	if cfg.Pulsar.NumPartitions != 4 {
		t.Errorf("expected 4 partitions, got %d", cfg.Pulsar.NumPartitions)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestDefaultConfig_ToOptions(t *testing.T) {
	cfg := DefaultConfig("")
	opts := cfg.Actor.ToOptions()
	if opts.BatchSize != cfg.Actor.BatchSize {
		t.Errorf("ToOptions dropped BatchSize: got %d, want %d", opts.BatchSize, cfg.Actor.BatchSize)
	}
	if opts.FlushInterval != cfg.Actor.FlushInterval {
		t.Errorf("ToOptions dropped FlushInterval: got %v, want %v", opts.FlushInterval, cfg.Actor.FlushInterval)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{name: "valid config", modify: func(c *Config) {}},
		{
			name:      "empty service URL",
			modify:    func(c *Config) { c.Pulsar.ServiceURL = "" },
			wantError: true,
		},
		{
			name:      "empty topic",
			modify:    func(c *Config) { c.Pulsar.Topic = "" },
			wantError: true,
		},
		{
			name:      "zero partitions",
			modify:    func(c *Config) { c.Pulsar.NumPartitions = 0 },
			wantError: true,
		},
		{
			name:      "negative actor batch size",
			modify:    func(c *Config) { c.Actor.BatchSize = -1 },
			wantError: true,
		},
		{
			name:      "negative refresh interval",
			modify:    func(c *Config) { c.Actor.RefreshInterval = -time.Second },
			wantError: true,
		},
		{
			name:      "zero message size",
			modify:    func(c *Config) { c.Performance.MessageSize = 0 },
			wantError: true,
		},
		{
			name:      "negative target throughput",
			modify:    func(c *Config) { c.Performance.TargetThroughput = -1 },
			wantError: true,
		},
		{
			name:      "zero metrics collection interval",
			modify:    func(c *Config) { c.Metrics.CollectionInterval = 0 },
			wantError: true,
		},
		{
			name: "export enabled without path",
			modify: func(c *Config) {
				c.Metrics.ExportEnabled = true
				c.Metrics.ExportPath = ""
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("")
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := DefaultConfig("")
	cfg.Performance.MessageSize = 2048
	cfg.Performance.TargetThroughput = 5000

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadConfig(configPath, "")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Performance.MessageSize != 2048 {
		t.Errorf("expected message size 2048, got %d", loaded.Performance.MessageSize)
	}
	if loaded.Performance.TargetThroughput != 5000 {
		t.Errorf("expected target throughput 5000, got %d", loaded.Performance.TargetThroughput)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	envVars := []string{
		"PULSAR_SERVICE_URL",
		"PULSAR_ADMIN_URL",
		"PULSAR_TOPIC",
		"PULSAR_NUM_PARTITIONS",
		"ACTOR_BATCH_ENABLED",
		"ACTOR_BATCH_SIZE",
		"ACTOR_FLUSH_INTERVAL",
		"ACTOR_REFRESH_INTERVAL",
		"ACTOR_TERMINATION_TIMEOUT",
		"PERFORMANCE_TARGET_RATE",
		"PERFORMANCE_MESSAGE_SIZE",
		"METRICS_COLLECTION_INTERVAL",
		"METRICS_ENABLE_EXPORT",
		"METRICS_EXPORT_PATH",
	}

	original := make(map[string]string)
	for _, v := range envVars {
		original[v] = os.Getenv(v)
	}
	defer func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	os.Setenv("PULSAR_SERVICE_URL", "pulsar://test:6650")
	os.Setenv("PULSAR_ADMIN_URL", "http://test:8080")
	os.Setenv("PULSAR_TOPIC", "test-topic")
	os.Setenv("PULSAR_NUM_PARTITIONS", "6")
	os.Setenv("ACTOR_BATCH_ENABLED", "false")
	os.Setenv("ACTOR_BATCH_SIZE", "500")
	os.Setenv("ACTOR_FLUSH_INTERVAL", "250ms")
	os.Setenv("ACTOR_REFRESH_INTERVAL", "30s")
	os.Setenv("ACTOR_TERMINATION_TIMEOUT", "2s")
	os.Setenv("PERFORMANCE_TARGET_RATE", "10000")
	os.Setenv("PERFORMANCE_MESSAGE_SIZE", "2048")
	os.Setenv("METRICS_COLLECTION_INTERVAL", "500ms")
	os.Setenv("METRICS_ENABLE_EXPORT", "true")
	os.Setenv("METRICS_EXPORT_PATH", "/tmp/metrics")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("failed to load config from env: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"ServiceURL", cfg.Pulsar.ServiceURL, "pulsar://test:6650"},
		{"AdminURL", cfg.Pulsar.AdminURL, "http://test:8080"},
		{"Topic", cfg.Pulsar.Topic, "test-topic"},
		{"NumPartitions", cfg.Pulsar.NumPartitions, 6},
		{"BatchEnabled", cfg.Actor.BatchEnabled, false},
		{"BatchSize", cfg.Actor.BatchSize, 500},
		{"FlushInterval", cfg.Actor.FlushInterval, 250 * time.Millisecond},
		{"RefreshInterval", cfg.Actor.RefreshInterval, 30 * time.Second},
		{"TerminationTimeout", cfg.Actor.TerminationTimeout, 2 * time.Second},
		{"TargetThroughput", cfg.Performance.TargetThroughput, 10000},
		{"MessageSize", cfg.Performance.MessageSize, 2048},
		{"CollectionInterval", cfg.Metrics.CollectionInterval, 500 * time.Millisecond},
		{"ExportEnabled", cfg.Metrics.ExportEnabled, true},
		{"ExportPath", cfg.Metrics.ExportPath, "/tmp/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := DefaultConfig("")
	cfg.Performance.MessageSize = 4096

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("config file was not created")
	}

	loaded, err := LoadConfig(configPath, "")
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}

	if loaded.Performance.MessageSize != 4096 {
		t.Errorf("expected message size 4096, got %d", loaded.Performance.MessageSize)
	}
}

func TestSaveInvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	cfg := DefaultConfig("")
	cfg.Pulsar.ServiceURL = ""

	if err := cfg.Save(configPath); err == nil {
		t.Error("expected error when saving invalid config, got nil")
	}
}

func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultConfig("")
	}
}

func BenchmarkValidate(b *testing.B) {
	cfg := DefaultConfig("")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}

func BenchmarkLoadConfigFromEnv(b *testing.B) {
	os.Setenv("PULSAR_SERVICE_URL", "pulsar://test:6650")
	os.Setenv("PERFORMANCE_MESSAGE_SIZE", "2048")
	defer func() {
		os.Unsetenv("PULSAR_SERVICE_URL")
		os.Unsetenv("PERFORMANCE_MESSAGE_SIZE")
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = LoadConfigFromEnv()
	}
}
