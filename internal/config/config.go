// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the importer needs that is not a CLI argument.
type Config struct {
	// DatabaseURL is a postgres:// DSN, or a plain file path for SQLite.
	DatabaseURL string        `envconfig:"DATABASE_URL" default:"parl-committees.db"`
	BaseURL     string        `envconfig:"BASE_URL" default:"https://www.parl.gc.ca"`
	LogMode     string        `envconfig:"LOG_MODE" default:"dev"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}

// Load reads configuration from PARL_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("parl", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return &cfg, nil
}
