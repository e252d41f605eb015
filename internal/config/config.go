// Package config holds the typed YAML configuration for the solver
// pipeline. Values load from a file when present, fall back to
// defaults, and can be overridden through the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all dynaf configuration.
type Config struct {
	// Solver engine configuration
	Solver SolverConfig `yaml:"solver"`

	// Result history persistence
	History HistoryConfig `yaml:"history"`

	// Generator defaults
	Generator GeneratorConfig `yaml:"generator"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SolverConfig configures the answer-set engine.
type SolverConfig struct {
	// ClingoBinary is the external solver executable, resolved through
	// PATH when not absolute.
	ClingoBinary string `yaml:"clingo_binary"`

	// SolveTimeout bounds one solve call. Empty or "0" means no budget.
	SolveTimeout string `yaml:"solve_timeout"`
}

// HistoryConfig configures the SQLite result history.
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// GeneratorConfig holds generator defaults for the CLI.
type GeneratorConfig struct {
	Size           int     `yaml:"size"`
	AttackProb     float64 `yaml:"attack_prob"`
	Updates        int     `yaml:"updates"`
	UpdateEdgeProb float64 `yaml:"update_edge_prob"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			ClingoBinary: "clingo",
			SolveTimeout: "60s",
		},
		History: HistoryConfig{
			Enabled:      false,
			DatabasePath: "data/dynaf.db",
		},
		Generator: GeneratorConfig{
			Size:           20,
			AttackProb:     0.25,
			Updates:        10,
			UpdateEdgeProb: 0.25,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if bin := os.Getenv("DYNAF_CLINGO"); bin != "" {
		c.Solver.ClingoBinary = bin
	}
	if timeout := os.Getenv("DYNAF_SOLVE_TIMEOUT"); timeout != "" {
		c.Solver.SolveTimeout = timeout
	}
	if path := os.Getenv("DYNAF_DB"); path != "" {
		c.History.DatabasePath = path
		c.History.Enabled = true
	}
	if level := os.Getenv("DYNAF_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetSolveTimeout returns the solve budget as a duration.
func (c *Config) GetSolveTimeout() time.Duration {
	d, err := time.ParseDuration(c.Solver.SolveTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}
