// Package config loads pipeline configuration from environment variables,
// with an optional YAML options file layered on top for run tuning.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all pipeline configuration.
type Config struct {
	Service    ServiceConfig
	Validation ValidationConfig
	Logging    LogConfig
}

// ServiceConfig holds reasoning-service client configuration.
type ServiceConfig struct {
	BaseURL        string        `envconfig:"REASONING_URL" default:"https://api.openai.com/v1"`
	APIKey         string        `envconfig:"REASONING_API_KEY"`
	Model          string        `envconfig:"REASONING_MODEL" default:"gpt-4o"`
	RequestTimeout time.Duration `envconfig:"REASONING_TIMEOUT" default:"120s"`
	MaxAttempts    int           `envconfig:"REASONING_MAX_ATTEMPTS" default:"3"`
	RetryWaitMin   time.Duration `envconfig:"REASONING_RETRY_WAIT_MIN" default:"1s"`
	RetryWaitMax   time.Duration `envconfig:"REASONING_RETRY_WAIT_MAX" default:"30s"`
	RatePerSecond  float64       `envconfig:"REASONING_RPS" default:"1"`
}

// ValidationConfig holds validator/repairer tuning.
type ValidationConfig struct {
	// Tolerance is the relative dimensional tolerance for conformance checks.
	Tolerance float64 `envconfig:"DIMENSION_TOLERANCE" default:"0.01"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o",
			RequestTimeout: 120 * time.Second,
			MaxAttempts:    3,
			RetryWaitMin:   time.Second,
			RetryWaitMax:   30 * time.Second,
			RatePerSecond:  1,
		},
		Validation: ValidationConfig{Tolerance: 0.01},
		Logging:    LogConfig{Level: "info"},
	}
}

// Options is the YAML options-file shape. Nil fields leave the loaded
// configuration untouched.
type Options struct {
	Tolerance      *float64 `yaml:"tolerance"`
	Model          *string  `yaml:"model"`
	MaxAttempts    *int     `yaml:"maxAttempts"`
	TimeoutSeconds *int     `yaml:"timeoutSeconds"`
	RatePerSecond  *float64 `yaml:"ratePerSecond"`
}

// ApplyOptionsFile overlays a YAML options file onto the configuration.
// A missing path is a no-op.
func (c *Config) ApplyOptionsFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read options file: %w", err)
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return fmt.Errorf("parse options file: %w", err)
	}
	if opts.Tolerance != nil {
		c.Validation.Tolerance = *opts.Tolerance
	}
	if opts.Model != nil {
		c.Service.Model = *opts.Model
	}
	if opts.MaxAttempts != nil {
		c.Service.MaxAttempts = *opts.MaxAttempts
	}
	if opts.TimeoutSeconds != nil {
		c.Service.RequestTimeout = time.Duration(*opts.TimeoutSeconds) * time.Second
	}
	if opts.RatePerSecond != nil {
		c.Service.RatePerSecond = *opts.RatePerSecond
	}
	return nil
}
