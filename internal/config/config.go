// Package config loads environment-supplied settings for the sync tool.
package config

import (
	"errors"
	"time"

	env "github.com/caarlos0/env/v11"
)

// ErrMissingAPIKey is returned when the hub credential is absent from the
// environment. Callers map it to the configuration-error exit code.
var ErrMissingAPIKey = errors.New("missing POSTMAN_API_KEY environment variable")

// Config holds the environment-backed configuration.
// Per-run inputs (workspace, spec name, paths) come from CLI flags instead.
type Config struct {
	// APIKey authenticates every spec hub call.
	APIKey string `env:"POSTMAN_API_KEY"`

	// BaseURL is the spec hub API root.
	BaseURL string `env:"SPEC_HUB_BASE_URL" envDefault:"https://api.getpostman.com"`

	// RequestTimeout bounds every hub HTTP call.
	RequestTimeout time.Duration `env:"SPEC_HUB_REQUEST_TIMEOUT" envDefault:"60s"`
}

// New parses the configuration from the environment.
func New() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
