// Package config loads and validates the simulator's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "/etc/log-simulator/config.yaml"

// Config represents the runtime configuration for the log simulator daemon.
type Config struct {
	Listen     string           `yaml:"listen"`
	Seed       int64            `yaml:"seed"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Sinks      []SinkConfig     `yaml:"sinks"`
	Queue      QueueConfig      `yaml:"queue"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Store      StoreConfig      `yaml:"store"`
}

// SchedulerConfig tunes the three emission loops.
type SchedulerConfig struct {
	FastIntervalMs     int `yaml:"fast_interval_ms"`
	HealthIntervalMs   int `yaml:"health_interval_ms"`
	BurstMinIntervalMs int `yaml:"burst_min_interval_ms"`
	BurstMaxIntervalMs int `yaml:"burst_max_interval_ms"`
	BurstStaggerMs     int `yaml:"burst_stagger_ms"`
	MinPerTick         int `yaml:"min_per_tick"`
	MaxPerTick         int `yaml:"max_per_tick"`
}

// ThresholdsConfig tunes severity classification latency thresholds.
type ThresholdsConfig struct {
	GeneralMs  int `yaml:"general_ms"`
	DatabaseMs int `yaml:"database_ms"`
	ExternalMs int `yaml:"external_ms"`
}

// SinkConfig describes one event destination.
type SinkConfig struct {
	// Type is one of "console", "console-dev", "file", or "otlp".
	Type string `yaml:"type"`
	// Path is the log file location for file sinks.
	Path string `yaml:"path"`
	// Compress gzips file sink output.
	Compress bool `yaml:"compress"`
	// Endpoint is the collector address for otlp sinks.
	Endpoint string `yaml:"endpoint"`
	// Insecure disables transport security for otlp sinks.
	Insecure bool `yaml:"insecure"`
}

// QueueConfig bounds the asynchronous delivery queue in front of the sinks.
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// MetricsConfig defines observability exposure options. Metrics default to
// enabled; the pointer distinguishes "absent" from an explicit false.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// StoreConfig configures the log persistence collaborator. The store
// defaults to enabled.
type StoreConfig struct {
	Enabled  *bool `yaml:"enabled"`
	Capacity int   `yaml:"capacity"`
}

// ValidationError aggregates multiple configuration validation failures.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	return errors.As(target, &other)
}

// Default returns the built-in configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads, parses, and validates a configuration from disk.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return decode(f)
}

// Parse decodes and validates configuration from raw YAML bytes.
func Parse(data []byte) (*Config, error) {
	return decode(strings.NewReader(string(data)))
}

func decode(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":3000"
	}
	if c.Scheduler.FastIntervalMs == 0 {
		c.Scheduler.FastIntervalMs = 800
	}
	if c.Scheduler.HealthIntervalMs == 0 {
		c.Scheduler.HealthIntervalMs = 10_000
	}
	if c.Scheduler.BurstMinIntervalMs == 0 {
		c.Scheduler.BurstMinIntervalMs = 30_000
	}
	if c.Scheduler.BurstMaxIntervalMs == 0 {
		c.Scheduler.BurstMaxIntervalMs = 60_000
	}
	if c.Scheduler.BurstStaggerMs == 0 {
		c.Scheduler.BurstStaggerMs = 200
	}
	if c.Scheduler.MinPerTick == 0 {
		c.Scheduler.MinPerTick = 1
	}
	if c.Scheduler.MaxPerTick == 0 {
		c.Scheduler.MaxPerTick = 4
	}
	if c.Thresholds.GeneralMs == 0 {
		c.Thresholds.GeneralMs = 1000
	}
	if c.Thresholds.DatabaseMs == 0 {
		c.Thresholds.DatabaseMs = 300
	}
	if c.Thresholds.ExternalMs == 0 {
		c.Thresholds.ExternalMs = 200
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "console"}}
	}
	if c.Queue.Capacity == 0 {
		c.Queue.Capacity = 1024
	}
	if c.Metrics.Enabled == nil {
		enabled := true
		c.Metrics.Enabled = &enabled
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Store.Enabled == nil {
		enabled := true
		c.Store.Enabled = &enabled
	}
	if c.Store.Capacity == 0 {
		c.Store.Capacity = 1000
	}
}

// MetricsEnabled reports whether the Prometheus endpoint is exposed.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled != nil && *c.Metrics.Enabled
}

// StoreEnabled reports whether the persistence collaborator is wired in.
func (c *Config) StoreEnabled() bool {
	return c.Store.Enabled != nil && *c.Store.Enabled
}

// Validate checks the configuration for consistency, aggregating every
// problem found.
func (c *Config) Validate() error {
	var problems []string

	if c.Scheduler.FastIntervalMs < 0 {
		problems = append(problems, "scheduler.fast_interval_ms must not be negative")
	}
	if c.Scheduler.HealthIntervalMs < 0 {
		problems = append(problems, "scheduler.health_interval_ms must not be negative")
	}
	if c.Scheduler.BurstMinIntervalMs <= 0 {
		problems = append(problems, "scheduler.burst_min_interval_ms must be greater than zero")
	}
	if c.Scheduler.BurstMaxIntervalMs < c.Scheduler.BurstMinIntervalMs {
		problems = append(problems, "scheduler.burst_max_interval_ms must not be less than burst_min_interval_ms")
	}
	if c.Scheduler.BurstStaggerMs <= 0 {
		problems = append(problems, "scheduler.burst_stagger_ms must be greater than zero")
	}
	if c.Scheduler.MinPerTick <= 0 {
		problems = append(problems, "scheduler.min_per_tick must be greater than zero")
	}
	if c.Scheduler.MaxPerTick < c.Scheduler.MinPerTick {
		problems = append(problems, "scheduler.max_per_tick must not be less than min_per_tick")
	}
	if c.Queue.Capacity <= 0 {
		problems = append(problems, "queue.capacity must be greater than zero")
	}
	if c.StoreEnabled() && c.Store.Capacity <= 0 {
		problems = append(problems, "store.capacity must be greater than zero when the store is enabled")
	}

	for i, sink := range c.Sinks {
		switch sink.Type {
		case "console", "console-dev":
		case "file":
			if sink.Path == "" {
				problems = append(problems, fmt.Sprintf("sinks[%d]: file sink requires a path", i))
			}
		case "otlp":
			if sink.Endpoint == "" {
				problems = append(problems, fmt.Sprintf("sinks[%d]: otlp sink requires an endpoint", i))
			}
		default:
			problems = append(problems, fmt.Sprintf("sinks[%d]: unknown sink type %q", i, sink.Type))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Warnings reports configuration combinations that are valid but likely
// unintended, such as OTLP transport/port mismatches.
func (c *Config) Warnings() []string {
	var warnings []string
	for i, sink := range c.Sinks {
		if sink.Type != "otlp" {
			continue
		}
		usesHTTPScheme := strings.HasPrefix(sink.Endpoint, "http://") || strings.HasPrefix(sink.Endpoint, "https://")
		if usesHTTPScheme && strings.Contains(sink.Endpoint, ":4317") {
			warnings = append(warnings, fmt.Sprintf(
				"sinks[%d]: endpoint uses an http scheme on port 4317; port 4317 is conventionally OTLP/gRPC, use port 4318 for OTLP/HTTP", i))
		}
		if strings.HasPrefix(sink.Endpoint, "https://") && sink.Insecure {
			warnings = append(warnings, fmt.Sprintf(
				"sinks[%d]: endpoint uses https but insecure=true requests plaintext", i))
		}
	}
	return warnings
}

// Convenience duration accessors.

func (c *Config) FastInterval() time.Duration {
	return time.Duration(c.Scheduler.FastIntervalMs) * time.Millisecond
}

func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.Scheduler.HealthIntervalMs) * time.Millisecond
}

func (c *Config) BurstMinInterval() time.Duration {
	return time.Duration(c.Scheduler.BurstMinIntervalMs) * time.Millisecond
}

func (c *Config) BurstMaxInterval() time.Duration {
	return time.Duration(c.Scheduler.BurstMaxIntervalMs) * time.Millisecond
}

func (c *Config) BurstStagger() time.Duration {
	return time.Duration(c.Scheduler.BurstStaggerMs) * time.Millisecond
}

func (c *Config) GeneralThreshold() time.Duration {
	return time.Duration(c.Thresholds.GeneralMs) * time.Millisecond
}

func (c *Config) DatabaseThreshold() time.Duration {
	return time.Duration(c.Thresholds.DatabaseMs) * time.Millisecond
}

func (c *Config) ExternalThreshold() time.Duration {
	return time.Duration(c.Thresholds.ExternalMs) * time.Millisecond
}
