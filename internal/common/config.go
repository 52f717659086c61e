// Package common provides shared utilities for netcurve
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for netcurve
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Source      SourceConfig  `toml:"source"`
	Curve       CurveConfig   `toml:"curve"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the embedded store location.
type StorageConfig struct {
	Path string `toml:"path"`
}

// SourceConfig selects and configures the daily-close price source.
// Provider is "yahoo" or "stub".
type SourceConfig struct {
	Provider  string `toml:"provider"`
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *SourceConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CurveConfig holds net value curve defaults.
type CurveConfig struct {
	IncludeCash bool   `toml:"include_cash"`
	PriceTTL    string `toml:"price_ttl"` // how long the latest cached close stays fresh
}

// GetPriceTTL parses and returns the price freshness TTL.
func (c *CurveConfig) GetPriceTTL() time.Duration {
	d, err := time.ParseDuration(c.PriceTTL)
	if err != nil {
		return time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/netcurve",
		},
		Source: SourceConfig{
			Provider:  "stub",
			BaseURL:   "https://query1.finance.yahoo.com",
			RateLimit: 5,
			Timeout:   "30s",
		},
		Curve: CurveConfig{
			IncludeCash: true,
			PriceTTL:    "1h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NETCURVE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("NETCURVE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("NETCURVE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("NETCURVE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("NETCURVE_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if provider := os.Getenv("NETCURVE_SOURCE"); provider != "" {
		config.Source.Provider = provider
	}
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
