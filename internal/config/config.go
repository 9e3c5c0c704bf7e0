// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server and CLI configuration.
type Config struct {
	Addr            string        `env:"FINTUTOR_ADDR" envDefault:":8080"`
	DBPath          string        `env:"FINTUTOR_DB"`
	JWTSecret       string        `env:"FINTUTOR_JWT_SECRET"`
	LogMode         string        `env:"FINTUTOR_LOG_MODE" envDefault:"dev"`
	MaxQuestions    int           `env:"FINTUTOR_MAX_QUESTIONS" envDefault:"8"`
	OTelEndpoint    string        `env:"FINTUTOR_OTEL_ENDPOINT"`
	CORSOrigins     []string      `env:"FINTUTOR_CORS_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `env:"FINTUTOR_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load parses Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.MaxQuestions < 1 {
		return fmt.Errorf("FINTUTOR_MAX_QUESTIONS must be at least 1, got %d", c.MaxQuestions)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("FINTUTOR_ADDR must not be empty")
	}
	return nil
}

// RequireJWTSecret reports an error when the server has no signing secret.
func (c Config) RequireJWTSecret() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("FINTUTOR_JWT_SECRET is required to serve HTTP")
	}
	return nil
}
