// Package config reads the optional scorecard YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultArtifacts = "artifacts"
	DefaultAddress   = "127.0.0.1"
	DefaultPort      = 8080
	DefaultLogLevel  = "info"
	DefaultLogFormat = "cli"

	maxPort = 65535
)

// Config represents the app config object.
type Config struct {
	// Artifacts is a directory path or an http(s) base URL.
	Artifacts string  `yaml:"artifacts"`
	Server    Server  `yaml:"server"`
	History   History `yaml:"history"`
	Log       Log     `yaml:"log"`
}

type Server struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

type History struct {
	// DB is a SQLite file path or postgres:// DSN; empty disables history.
	DB string `yaml:"db"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Artifacts: DefaultArtifacts,
		Server: Server{
			Address: DefaultAddress,
			Port:    DefaultPort,
		},
		Log: Log{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	if strings.TrimSpace(c.Artifacts) == "" {
		return errors.New("artifacts location required")
	}
	if c.Server.Port < 0 || c.Server.Port > maxPort {
		return fmt.Errorf("port out of range: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative: %v", c.Server.RateLimit)
	}
	if c.Server.RateBurst < 0 {
		return fmt.Errorf("rate burst must not be negative: %d", c.Server.RateBurst)
	}
	return nil
}

// Burst returns the configured burst, defaulting to the rate rounded up.
func (s Server) Burst() int {
	if s.RateBurst > 0 {
		return s.RateBurst
	}
	b := int(s.RateLimit)
	if float64(b) < s.RateLimit {
		b++
	}
	return max(b, 1)
}
