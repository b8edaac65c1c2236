// Package config loads and validates the mocktail server configuration,
// including project, endpoint and bucket definitions.
package config

import (
	"time"

	"github.com/johanstenius/mocktail-sub000/pkg/mock"
)

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig    `json:"server" yaml:"server"`
	Logging  LoggingConfig   `json:"logging" yaml:"logging"`
	Quota    QuotaConfig     `json:"quota" yaml:"quota"`
	Projects []ProjectConfig `json:"projects" yaml:"projects" validate:"dive"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr" yaml:"addr"`

	// RequestLogCapacity bounds the in-memory request history.
	RequestLogCapacity int `json:"requestLogCapacity" yaml:"requestLogCapacity" validate:"gte=0"`

	// NotifyDebounceMs is the stats-notification debounce window.
	NotifyDebounceMs int `json:"notifyDebounceMs" yaml:"notifyDebounceMs" validate:"gte=0"`

	// ReadTimeoutMs and WriteTimeoutMs bound the listener's I/O.
	ReadTimeoutMs  int `json:"readTimeoutMs" yaml:"readTimeoutMs" validate:"gte=0"`
	WriteTimeoutMs int `json:"writeTimeoutMs" yaml:"writeTimeoutMs" validate:"gte=0"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`

	// Format is one of console, text, json.
	Format string `json:"format" yaml:"format" validate:"omitempty,oneof=console text json"`

	// File, when set, additionally writes JSON logs to this path.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// QuotaConfig holds the per-project request quota.
type QuotaConfig struct {
	// Limit is the maximum number of requests per window. Zero disables
	// quota enforcement.
	Limit int `json:"limit" yaml:"limit" validate:"gte=0"`

	// WindowSeconds is the sliding window length.
	WindowSeconds int `json:"windowSeconds" yaml:"windowSeconds" validate:"gte=0"`
}

// Window returns the quota window as a duration, defaulting to one minute.
func (q QuotaConfig) Window() time.Duration {
	if q.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(q.WindowSeconds) * time.Second
}

// ProjectConfig is a project definition plus its seeded buckets.
type ProjectConfig struct {
	mock.Project `yaml:",inline"`

	// Buckets maps bucket names to their seed items.
	Buckets map[string][]any `json:"buckets,omitempty" yaml:"buckets,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:               ":8080",
			RequestLogCapacity: 1000,
			NotifyDebounceMs:   500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Quota: QuotaConfig{
			Limit:         600,
			WindowSeconds: 60,
		},
	}
}

// applyDefaults fills unset fields on a loaded config.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.RequestLogCapacity == 0 {
		c.Server.RequestLogCapacity = def.Server.RequestLogCapacity
	}
	if c.Server.NotifyDebounceMs == 0 {
		c.Server.NotifyDebounceMs = def.Server.NotifyDebounceMs
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
}
