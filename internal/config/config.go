// Package config centralizes configuration for the keva server. Settings can
// come from a configuration file, environment variables, or command-line
// flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
)

// Config represents the complete configuration for the keva application.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Store configuration
	Store StoreConfig `mapstructure:"store" yaml:"store" json:"store"`

	// Operation journey tracking
	Tracking TrackingConfig `mapstructure:"tracking" yaml:"tracking" json:"tracking"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	APIKey          string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	MaxBodyMB       int64  `mapstructure:"max_body_mb" yaml:"max_body_mb" json:"max_body_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Rate limiting
	RateLimitEnabled  bool  `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDay     int64 `mapstructure:"max_data_per_day" yaml:"max_data_per_day" json:"max_data_per_day"`
}

// StoreConfig contains key-value store settings.
type StoreConfig struct {
	DataDir        string `mapstructure:"data_dir" yaml:"data_dir" json:"data_dir"`
	JournalEnabled bool   `mapstructure:"journal_enabled" yaml:"journal_enabled" json:"journal_enabled"`
}

// TrackingConfig controls per-operation journey tracking. The switch is read
// once at process startup; there is no runtime toggle.
type TrackingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Verbose:  false,
		Server: ServerConfig{
			Host:              "localhost",
			Port:              8080,
			CORSOrigin:        "*",
			MaxBodyMB:         16,
			TimeoutSec:        30,
			ShutdownTimeout:   10,
			RateLimitEnabled:  false,
			RequestsPerMinute: 600,
			RequestsPerHour:   10000,
			MaxRequestsPerDay: 100000,
			MaxDataPerDay:     1024 * 1024 * 1024,
		},
		Store: StoreConfig{
			DataDir:        "data",
			JournalEnabled: true,
		},
		Tracking: TrackingConfig{
			Enabled: false,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxBodyMB < 1 {
		return fmt.Errorf("invalid max body size: %d MB (must be at least 1)", c.Server.MaxBodyMB)
	}
	if c.Server.TimeoutSec < 1 {
		return fmt.Errorf("invalid request timeout: %d (must be at least 1 second)", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 1 {
		return fmt.Errorf("invalid shutdown timeout: %d (must be at least 1 second)", c.Server.ShutdownTimeout)
	}

	if c.Server.RateLimitEnabled {
		if c.Server.RequestsPerMinute < 0 || c.Server.RequestsPerHour < 0 ||
			c.Server.MaxRequestsPerDay < 0 || c.Server.MaxDataPerDay < 0 {
			return fmt.Errorf("rate limits must not be negative")
		}
	}

	if c.Store.JournalEnabled && c.Store.DataDir == "" {
		return fmt.Errorf("store data_dir must be set when the journal is enabled")
	}

	return nil
}
