package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is loaded from the environment. API keys are read by the provider
// SDKs themselves and never flow through the core packages.
type Config struct {
	Provider   string `env:"CONVOY_PROVIDER" envDefault:"anthropic"`
	Model      string `env:"CONVOY_MODEL"`
	MaxTurns   int    `env:"CONVOY_MAX_TURNS" envDefault:"50"`
	MaxTokens  int    `env:"CONVOY_MAX_TOKENS" envDefault:"4096"`
	MaxRetries int    `env:"CONVOY_MAX_RETRIES" envDefault:"2"`
	Workspace  string `env:"CONVOY_WORKSPACE"`
	Parallel   bool   `env:"CONVOY_PARALLEL_TOOLS"`
	Verbose    bool   `env:"CONVOY_VERBOSE"`
}

// LoadConfig parses configuration from the environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.MaxTurns <= 0 {
		return Config{}, fmt.Errorf("CONVOY_MAX_TURNS must be positive, got %d", cfg.MaxTurns)
	}
	if cfg.MaxRetries < 0 {
		return Config{}, fmt.Errorf("CONVOY_MAX_RETRIES must not be negative, got %d", cfg.MaxRetries)
	}
	return cfg, nil
}
