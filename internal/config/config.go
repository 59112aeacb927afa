// Package config holds the memobench configuration: defaults, YAML loading
// and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/IvanBrykalov/memocache/cache"
	"github.com/IvanBrykalov/memocache/internal/logging"
	"gopkg.in/yaml.v2"
)

// Configuration represents the complete memobench configuration.
type Configuration struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Stress  StressConfig  `yaml:"stress" mapstructure:"stress"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// CacheConfig mirrors cache.Options.
type CacheConfig struct {
	Capacity     int  `yaml:"capacity" mapstructure:"capacity"`
	Unbounded    bool `yaml:"unbounded" mapstructure:"unbounded"`
	Typed        bool `yaml:"typed" mapstructure:"typed"`
	SingleFlight bool `yaml:"single_flight" mapstructure:"single_flight"`
}

// StressConfig drives the concurrent stress run.
type StressConfig struct {
	Workers      int           `yaml:"workers" mapstructure:"workers"`
	Iterations   int           `yaml:"iterations" mapstructure:"iterations"`
	Keys         int           `yaml:"keys" mapstructure:"keys"`
	ComputeDelay time.Duration `yaml:"compute_delay" mapstructure:"compute_delay"`
	FailureRate  float64       `yaml:"failure_rate" mapstructure:"failure_rate"`
	SampleEvery  time.Duration `yaml:"sample_every" mapstructure:"sample_every"`
	Seed         int64         `yaml:"seed" mapstructure:"seed"`
}

// MetricsConfig controls the Prometheus endpoint; an empty Addr disables it.
type MetricsConfig struct {
	Addr      string `yaml:"addr" mapstructure:"addr"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

// NewDefault returns a configuration with sensible defaults.
func NewDefault() *Configuration {
	return &Configuration{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Cache: CacheConfig{
			Capacity: 128,
		},
		Stress: StressConfig{
			Workers:     8,
			Iterations:  10_000,
			Keys:        512,
			SampleEvery: 10 * time.Millisecond,
			Seed:        1,
		},
		Metrics: MetricsConfig{
			Namespace: "memocache",
		},
	}
}

// LoadFromFile overlays the YAML file onto c. Fields missing from the file
// keep their current values.
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// SaveToFile writes c as YAML.
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Configuration) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if c.Cache.Capacity < 0 {
		errs = append(errs, fmt.Errorf("cache.capacity must be >= 0, got %d", c.Cache.Capacity))
	}
	if c.Stress.Workers <= 0 {
		errs = append(errs, fmt.Errorf("stress.workers must be > 0, got %d", c.Stress.Workers))
	}
	if c.Stress.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("stress.iterations must be > 0, got %d", c.Stress.Iterations))
	}
	if c.Stress.Keys <= 0 {
		errs = append(errs, fmt.Errorf("stress.keys must be > 0, got %d", c.Stress.Keys))
	}
	if c.Stress.ComputeDelay < 0 {
		errs = append(errs, fmt.Errorf("stress.compute_delay must be >= 0, got %s", c.Stress.ComputeDelay))
	}
	if c.Stress.FailureRate < 0 || c.Stress.FailureRate > 1 {
		errs = append(errs, fmt.Errorf("stress.failure_rate must be within [0,1], got %g", c.Stress.FailureRate))
	}
	if c.Stress.SampleEvery <= 0 {
		errs = append(errs, fmt.Errorf("stress.sample_every must be > 0, got %s", c.Stress.SampleEvery))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// CacheOptions converts the cache section into cache.Options.
func CacheOptions[V any](c CacheConfig) cache.Options[V] {
	return cache.Options[V]{
		Capacity:     c.Capacity,
		Unbounded:    c.Unbounded,
		Typed:        c.Typed,
		SingleFlight: c.SingleFlight,
	}
}
