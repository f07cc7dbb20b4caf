// Package config provides configuration management for the pricegraph
// tooling.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/dexmesh/pricegraph/pkg/orderbook"
)

// Config holds the complete pricegraph configuration.
type Config struct {
	// Engine settings
	Engine EngineSettings `json:"engine"`

	// Snapshot settings
	Snapshot SnapshotSettings `json:"snapshot"`
}

// EngineSettings holds the policy parameters of the matching engine.
type EngineSettings struct {
	// FeeFactor is the multiplicative protocol fee applied once per hop.
	FeeFactor float64 `json:"fee_factor"`
	// MinAmount is the volume below which an order or flow is dust.
	MinAmount float64 `json:"min_amount"`
	// Hops bounds path searches; zero means unbounded.
	Hops int `json:"hops"`
}

// SnapshotSettings holds defaults for snapshot acquisition.
type SnapshotSettings struct {
	// Source is a file path, an http(s):// URL, or a ws(s):// URL.
	Source string `json:"source,omitempty"`
	// TimeoutSecs bounds one fetch.
	TimeoutSecs int `json:"timeout_secs"`
}

// DefaultConfig returns a default configuration matching the protocol's
// on-chain settings.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineSettings{
			FeeFactor: 1.0 / 0.999, // 0.1% fee per hop
			MinAmount: 10_000,
			Hops:      0,
		},
		Snapshot: SnapshotSettings{
			TimeoutSecs: 30,
		},
	}
}

// LoadFromFile loads configuration from a JSON file, applying environment
// overrides on top.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables alone.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	return cfg
}

// applyEnvOverrides applies PRICEGRAPH_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PRICEGRAPH_FEE_FACTOR"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			c.Engine.FeeFactor = val
		}
	}
	if v := os.Getenv("PRICEGRAPH_MIN_AMOUNT"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			c.Engine.MinAmount = val
		}
	}
	if v := os.Getenv("PRICEGRAPH_HOPS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			c.Engine.Hops = val
		}
	}
	if v := os.Getenv("PRICEGRAPH_SNAPSHOT_SOURCE"); v != "" {
		c.Snapshot.Source = v
	}
	if v := os.Getenv("PRICEGRAPH_SNAPSHOT_TIMEOUT_SECS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			c.Snapshot.TimeoutSecs = val
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if !(c.Engine.FeeFactor >= 1) || math.IsInf(c.Engine.FeeFactor, 1) {
		return fmt.Errorf("fee factor %v must be finite and at least 1", c.Engine.FeeFactor)
	}
	if c.Engine.MinAmount < 0 || math.IsNaN(c.Engine.MinAmount) {
		return fmt.Errorf("min amount %v must be non-negative", c.Engine.MinAmount)
	}
	if c.Engine.Hops < 0 {
		return fmt.Errorf("hop bound %d must be non-negative", c.Engine.Hops)
	}
	if c.Snapshot.TimeoutSecs <= 0 {
		return fmt.Errorf("snapshot timeout %d must be positive", c.Snapshot.TimeoutSecs)
	}
	return nil
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ToOrderbookParams converts the engine settings to orderbook parameters.
func (c *Config) ToOrderbookParams() orderbook.Params {
	return orderbook.Params{
		FeeFactor: c.Engine.FeeFactor,
		MinAmount: c.Engine.MinAmount,
	}
}
