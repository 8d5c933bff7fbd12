package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Allocator AllocatorConfig `yaml:"allocator"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AllocatorConfig tunes the credit allocator.
type AllocatorConfig struct {
	// MaxAttempts bounds transaction retries on write conflicts.
	MaxAttempts int `yaml:"max_attempts"`
}

// ReconcileConfig tunes the stuck-interview sweep.
type ReconcileConfig struct {
	// StalenessWindow is how long an in_progress interview may run before
	// reconciliation abandons it.
	StalenessWindow time.Duration `yaml:"staleness_window"`
	// Concurrency bounds the sweep fan-out.
	Concurrency int `yaml:"concurrency"`
	// Interval enables a periodic background sweep when > 0.
	Interval time.Duration `yaml:"interval"`
}

// UnmarshalYAML accepts durations in time.ParseDuration form ("2h", "45m").
// Absent fields keep their current values.
func (r *ReconcileConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		StalenessWindow string `yaml:"staleness_window"`
		Concurrency     int    `yaml:"concurrency"`
		Interval        string `yaml:"interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.StalenessWindow != "" {
		window, err := time.ParseDuration(raw.StalenessWindow)
		if err != nil {
			return fmt.Errorf("invalid staleness_window: %w", err)
		}
		r.StalenessWindow = window
	}
	if raw.Concurrency > 0 {
		r.Concurrency = raw.Concurrency
	}
	if raw.Interval != "" {
		interval, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval: %w", err)
		}
		r.Interval = interval
	}
	return nil
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "interviewd.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Allocator: AllocatorConfig{
			MaxAttempts: 3,
		},
		Reconcile: ReconcileConfig{
			StalenessWindow: 2 * time.Hour,
			Concurrency:     4,
		},
	}

	if path := os.Getenv("INTERVIEWD_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("INTERVIEWD_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("INTERVIEWD_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INTERVIEWD_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("INTERVIEWD_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("INTERVIEWD_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if windowStr := os.Getenv("INTERVIEWD_STALENESS_WINDOW"); windowStr != "" {
		window, err := time.ParseDuration(windowStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INTERVIEWD_STALENESS_WINDOW: %w", err)
		}
		cfg.Reconcile.StalenessWindow = window
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
