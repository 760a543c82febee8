// Package config loads the application configuration from environment
// variables (prefix RFQ) with an optional YAML file underneath. Every
// location the process touches, the database most of all, is an explicit
// configuration value threaded through constructors, never an ambient
// default.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Analytics AnalyticsConfig `yaml:"analytics" envconfig:"ANALYTICS"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json"`
}

// StorageConfig locates the database and the upload spool.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" envconfig:"DATABASE_PATH" default:"data/rfq.db"`
	UploadDir    string `yaml:"upload_dir" envconfig:"UPLOAD_DIR" default:"data/uploads"`
	MaxUploadMB  int64  `yaml:"max_upload_mb" envconfig:"MAX_UPLOAD_MB" default:"32"`
}

// SecurityConfig contains CORS and rate-limit settings.
type SecurityConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" default:"50"`
	RateLimitBurst int      `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" default:"25"`
}

// AnalyticsConfig carries the tunable analysis parameters.
type AnalyticsConfig struct {
	EstimateHighThreshold   float64 `yaml:"estimate_high_threshold" envconfig:"ESTIMATE_HIGH_THRESHOLD" default:"0.55"`
	EstimateMediumThreshold float64 `yaml:"estimate_medium_threshold" envconfig:"ESTIMATE_MEDIUM_THRESHOLD" default:"0.30"`
	EstimateCandidateFloor  float64 `yaml:"estimate_candidate_floor" envconfig:"ESTIMATE_CANDIDATE_FLOOR" default:"0.25"`
	EstimateSizeBonus       float64 `yaml:"estimate_size_bonus" envconfig:"ESTIMATE_SIZE_BONUS" default:"0.20"`
}

// Load builds the configuration: struct-tag defaults and RFQ_* environment
// variables first, then the YAML file named by RFQ_CONFIG_FILE overlaid on
// top when set. envconfig writes its defaults into every unset field, so the
// file must come last to be able to override anything.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("RFQ", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if path := os.Getenv("RFQ_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage database path must be set")
	}
	if c.Analytics.EstimateHighThreshold < c.Analytics.EstimateMediumThreshold {
		return fmt.Errorf("estimate thresholds inverted: high %.2f below medium %.2f",
			c.Analytics.EstimateHighThreshold, c.Analytics.EstimateMediumThreshold)
	}
	return nil
}
