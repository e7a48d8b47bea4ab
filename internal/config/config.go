// Package config loads and validates the service configuration from YAML.
// Every section is optional; omitted sections fall back to compiled-in
// defaults so an empty file is a valid configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/complyops/sentinel/internal/detector"
	"github.com/complyops/sentinel/internal/risk"
	"github.com/complyops/sentinel/pkg/pathutil"
)

const (
	defaultAddr        = ":8080"
	defaultPollSeconds = 300
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RiskConfig tunes scoring weights and review trigger thresholds. Zero-valued
// fields are filled from the risk package defaults at construction time.
type RiskConfig struct {
	Weights    risk.Weights    `yaml:"weights"`
	Thresholds risk.Thresholds `yaml:"thresholds"`
}

// S3Config points the document detector at an S3 bucket to crawl. The section
// is optional; without it no crawler runs.
type S3Config struct {
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	PollSeconds int    `yaml:"poll_seconds"`
}

// PollInterval returns the crawl interval.
func (s *S3Config) PollInterval() time.Duration {
	if s.PollSeconds <= 0 {
		return defaultPollSeconds * time.Second
	}
	return time.Duration(s.PollSeconds) * time.Second
}

// Config is the root service configuration.
type Config struct {
	Server   ServerConfig       `yaml:"server"`
	Risk     RiskConfig         `yaml:"risk"`
	Patterns *detector.Patterns `yaml:"patterns"`
	S3       *S3Config          `yaml:"s3"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: defaultAddr},
	}
}

// Load reads and validates a YAML configuration file. The path must pass
// traversal validation and carry a YAML extension.
func Load(path string) (*Config, error) {
	cleanPath, err := pathutil.ValidateConfigPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(cleanPath) // #nosec G304 -- path is validated above
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors that would otherwise surface
// at runtime.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	for severity, weight := range c.Risk.Weights.Severity {
		if !severity.IsValid() {
			return fmt.Errorf("risk.weights.severity: unknown severity %q", severity)
		}
		if weight < 0 {
			return fmt.Errorf("risk.weights.severity.%s must not be negative", severity)
		}
	}
	if c.Risk.Thresholds.TriggerScore < 0 {
		return fmt.Errorf("risk.thresholds.trigger_score must not be negative")
	}
	if c.Patterns != nil {
		if err := c.Patterns.Validate(); err != nil {
			return fmt.Errorf("patterns: %w", err)
		}
	}
	if c.S3 != nil && c.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket must not be empty when the s3 section is present")
	}
	return nil
}

// DetectorPatterns returns the configured pattern tables, or the compiled-in
// defaults when the file carries no patterns section.
func (c *Config) DetectorPatterns() detector.Patterns {
	if c.Patterns != nil {
		return *c.Patterns
	}
	return detector.DefaultPatterns()
}
