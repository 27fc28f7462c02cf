package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Reconcile  ReconcileConfig  `yaml:"reconcile"`
	Lab        LabConfig        `yaml:"lab"`
	Events     EventsConfig     `yaml:"events"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// ReconcileConfig controls the scheduled status reconciliation job.
type ReconcileConfig struct {
	Enabled bool `yaml:"enabled"`
	// Schedule is a cron expression; the default runs nightly at 02:00.
	Schedule     string `yaml:"schedule"`
	RunAtStartup bool   `yaml:"run_at_startup"`
}

// LabConfig controls the calibration-lab status poller.
type LabConfig struct {
	Enabled         bool              `yaml:"enabled"`
	IntervalSeconds int               `yaml:"interval_seconds"`
	Interval        time.Duration     `yaml:"-"` // Ignored by YAML parser
	URL             string            `yaml:"url"`
	Headers         map[string]string `yaml:"headers"`
	PageSize        int               `yaml:"page_size"`
}

// EventsConfig wires the optional Redis event bus. An empty address disables
// publishing entirely.
type EventsConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	Channel       string `yaml:"channel"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LoggingConfig holds the logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Reconcile.Schedule == "" {
		cfg.Reconcile.Schedule = "0 2 * * *"
	}

	if cfg.Lab.IntervalSeconds <= 0 {
		cfg.Lab.IntervalSeconds = 3600
	}
	cfg.Lab.Interval = time.Duration(cfg.Lab.IntervalSeconds) * time.Second
	if cfg.Lab.PageSize <= 0 {
		cfg.Lab.PageSize = 100
	}

	if cfg.Events.Channel == "" {
		cfg.Events.Channel = "gauge.updated"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}
