// Package config loads service configuration from a YAML file with
// PAREVIEW_* environment overrides layered on top.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string `koanf:"addr"`
	AllowAllOrigins bool   `koanf:"allow_all_origins"`
}

// FaultsConfig parameterizes the injector emulating the degraded backend.
type FaultsConfig struct {
	FailureRate  float64 `koanf:"failure_rate"`
	MinLatencyMS int     `koanf:"min_latency_ms"`
	MaxLatencyMS int     `koanf:"max_latency_ms"`
	Seed         int64   `koanf:"seed"`
}

// MinLatency returns the lower latency bound as a duration.
func (f FaultsConfig) MinLatency() time.Duration {
	return time.Duration(f.MinLatencyMS) * time.Millisecond
}

// MaxLatency returns the upper latency bound as a duration.
func (f FaultsConfig) MaxLatency() time.Duration {
	return time.Duration(f.MaxLatencyMS) * time.Millisecond
}

// StoreConfig sizes the seeded worklist.
type StoreConfig struct {
	ListSize int `koanf:"list_size"`
	SLAHours int `koanf:"sla_hours"`
}

// SLAWindow returns the deadline window as a duration.
func (s StoreConfig) SLAWindow() time.Duration {
	return time.Duration(s.SLAHours) * time.Hour
}

// RetryConfig bounds the client-side retry loop.
type RetryConfig struct {
	BaseDelayMS int `koanf:"base_delay_ms"`
	MaxAttempts int `koanf:"max_attempts"`
}

// BaseDelay returns the first backoff wait as a duration.
func (r RetryConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMS) * time.Millisecond
}

// Config is the top-level configuration, corresponding to pareview.yml.
type Config struct {
	Server        ServerConfig `koanf:"server"`
	Faults        FaultsConfig `koanf:"faults"`
	Store         StoreConfig  `koanf:"store"`
	Retry         RetryConfig  `koanf:"retry"`
	MutatingRoles []string     `koanf:"mutating_roles"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8090"},
		Faults: FaultsConfig{
			FailureRate:  0.25,
			MinLatencyMS: 200,
			MaxLatencyMS: 1200,
		},
		Store:         StoreConfig{ListSize: 750, SLAHours: 72},
		Retry:         RetryConfig{BaseDelayMS: 500, MaxAttempts: 4},
		MutatingRoles: []string{"reviewer", "admin"},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PAREVIEW_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// PAREVIEW_SERVER_ADDR -> server.addr, etc.
	if err := k.Load(env.Provider("PAREVIEW_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "PAREVIEW_")), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Faults.FailureRate < 0 || c.Faults.FailureRate > 1 {
		return fmt.Errorf("faults.failure_rate must be within [0,1]")
	}
	if c.Faults.MinLatencyMS < 0 {
		return fmt.Errorf("faults.min_latency_ms must be non-negative")
	}
	if c.Faults.MaxLatencyMS < c.Faults.MinLatencyMS {
		return fmt.Errorf("faults.max_latency_ms must be >= faults.min_latency_ms")
	}
	if c.Store.ListSize <= 0 {
		return fmt.Errorf("store.list_size must be positive")
	}
	if c.Store.SLAHours <= 0 {
		return fmt.Errorf("store.sla_hours must be positive")
	}
	if c.Retry.BaseDelayMS <= 0 {
		return fmt.Errorf("retry.base_delay_ms must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if len(c.MutatingRoles) == 0 {
		return fmt.Errorf("mutating_roles must not be empty")
	}
	return nil
}
