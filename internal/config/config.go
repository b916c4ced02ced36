// Package config loads run configuration for the crucible CLI from YAML,
// with CLI flag overrides layered on top.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataDir   string  `yaml:"data_dir"`
	Epochs    int     `yaml:"epochs"`
	BatchSize int     `yaml:"batch_size"`
	LR        float64 `yaml:"lr"`
	Workers   int     `yaml:"workers"`
	Seed      int64   `yaml:"seed"`
	LogEvery  int     `yaml:"log_every"`
	Synthetic bool    `yaml:"synthetic"`
}

// Overrides captures CLI-supplied values; zero values leave the loaded
// config untouched.
type Overrides struct {
	DataDir   string
	Epochs    int
	BatchSize int
	LR        float64
	Workers   int
	Seed      int64
	LogEvery  int
	Synthetic bool
}

// Default returns the baseline configuration a preset builds on.
func Default() *Config {
	return &Config{
		DataDir:   "./data",
		Epochs:    10,
		BatchSize: 32,
		LR:        0.001,
		Seed:      42,
		LogEvery:  100,
	}
}

// Load reads and validates a Config from a YAML file, starting from base
// (or Default when base is nil) so presets keep their values for keys the
// file omits. An empty path yields base unchanged.
func Load(path string, base *Config) (*Config, error) {
	cfg := Default()
	if base != nil {
		copied := *base
		cfg = &copied
	}
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg with every non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LR > 0 {
		c.LR = o.LR
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.Synthetic {
		c.Synthetic = true
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LR <= 0 {
		return fmt.Errorf("lr must be > 0 (got %g)", c.LR)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", c.Workers)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("log_every must be >= 0 (got %d)", c.LogEvery)
	}
	return nil
}
