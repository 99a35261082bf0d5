package config

import (
	"time"

	"github.com/astrasemi/qualitylens/internal/ailink"
)

// Config represents the complete application configuration. Values are
// layered: built-in defaults, then the YAML config file, then
// QUALITYLENS_* environment variables and bound flags.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
	AILink  ailink.Config `mapstructure:"ailink"`
	Insight InsightConfig `mapstructure:"insight"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AdminToken      string        `mapstructure:"admin_token"`
}

// LoggingConfig contains server logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Format is json or console.
	Format string `mapstructure:"format"`

	Environment string `mapstructure:"environment"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated Prometheus exporter port. /metrics on the main
	// HTTP port proxies it.
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// InsightConfig configures the terminal and interactive clients.
type InsightConfig struct {
	// Endpoint is the base URL of the insight server.
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// DefaultContext preselects the context field in the clients.
	DefaultContext string `mapstructure:"default_context"`
}
