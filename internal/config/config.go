// Package config provides configuration management for the Intersight exporter.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	exporrors "github.com/gnuowned/intersight-exporter/internal/errors"
)

// EnvPrefix is prepended to every environment variable the exporter reads.
const EnvPrefix = "INTERSIGHT_EXPORTER"

// Config holds all configuration for the exporter.
type Config struct {
	Poll       PollConfig       `mapstructure:"poll"`
	Server     ServerConfig     `mapstructure:"server"`
	Intersight IntersightConfig `mapstructure:"intersight"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// PollConfig holds poll loop configuration.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// ServerConfig holds exposition server configuration.
type ServerConfig struct {
	Port            int             `mapstructure:"port"`
	MetricsPath     string          `mapstructure:"metrics_path"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration   `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig holds scrape rate limiter configuration.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// IntersightConfig holds upstream API client configuration.
type IntersightConfig struct {
	APIParams          string        `mapstructure:"api_params"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"port":       "server.port",
	"api_params": "intersight.api_params",
	"log-level":  "logging.level",
	"log-format": "logging.format",
}

// Load reads configuration from defaults, an optional file, environment variables
// and command line flags, in increasing order of precedence. flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, exporrors.ConfigUnreadable(configPath, err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, exporrors.ConfigMalformed(configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, exporrors.ConfigInvalid("config validation failed", err)
	}

	return &cfg, nil
}

// bindFlags wires command line flags into v. The poll time flag is given in whole
// seconds, so it is converted instead of bound.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %q: %w", name, err)
			}
		}
	}

	if f := flags.Lookup("pooltime"); f != nil && f.Changed {
		seconds, err := flags.GetInt("pooltime")
		if err != nil {
			return exporrors.ConfigInvalid("invalid pooltime flag", err)
		}
		v.Set("poll.interval", time.Duration(seconds)*time.Second)
	}

	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Poll defaults
	v.SetDefault("poll.interval", "5s")

	// Server defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit.enabled", false)
	v.SetDefault("server.rate_limit.requests_per_second", 10.0)
	v.SetDefault("server.rate_limit.burst_size", 20)

	// Intersight defaults
	v.SetDefault("intersight.api_params", DefaultAPIParamsPath)
	v.SetDefault("intersight.request_timeout", "30s")
	v.SetDefault("intersight.insecure_skip_verify", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 14)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return fmt.Errorf("metrics path must start with '/': %q", c.Server.MetricsPath)
	}

	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive")
	}

	if c.Server.RateLimit.Enabled {
		if c.Server.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limiter requests per second must be positive")
		}
		if c.Server.RateLimit.BurstSize <= 0 {
			return fmt.Errorf("rate limiter burst size must be positive")
		}
	}

	if c.Intersight.APIParams == "" {
		return fmt.Errorf("api params path is required")
	}

	if c.Intersight.RequestTimeout < 0 {
		return fmt.Errorf("intersight request timeout must not be negative")
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format %q (must be json or console)", c.Logging.Format)
	}

	return nil
}
