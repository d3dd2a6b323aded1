package config

import "time"

// Config represents the complete vellum configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Queue   QueueConfig   `yaml:"queue"`
	History HistoryConfig `yaml:"history"`
	API     APIConfig     `yaml:"api,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// QueueConfig defines task queue limits and supervision.
type QueueConfig struct {
	MaxSize          int           `yaml:"max_size"`
	WarningThreshold int           `yaml:"warning_threshold"`
	WatchdogTimeout  time.Duration `yaml:"watchdog_timeout"`
}

// HistoryConfig defines document history storage settings.
type HistoryConfig struct {
	Path       string        `yaml:"path"`
	Retention  time.Duration `yaml:"retention"`
	MaxEntries int           `yaml:"max_entries"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
type APIAuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "vellum",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Queue: QueueConfig{
			MaxSize:          100,
			WarningThreshold: 10,
			WatchdogTimeout:  30 * time.Second,
		},
		History: HistoryConfig{
			Path:       "./data/history.db",
			Retention:  30 * 24 * time.Hour,
			MaxEntries: 500,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
			Auth: APIAuthConfig{
				APIKey: "",
			},
		},
	}
}
