// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting. Session behavior itself is not
// configurable; these cover the process surfaces around it.
type Config struct {
	// ListenAddr is the HTTP/websocket bind address.
	ListenAddr string `env:"GAMBIT_LISTEN_ADDR" envDefault:":8080"`
	// AllowedOrigins restricts websocket handshakes. Empty allows all.
	AllowedOrigins []string `env:"GAMBIT_ALLOWED_ORIGINS" envSeparator:","`
	// ArchivePath is the SQLite game archive location. Empty disables the
	// archive.
	ArchivePath string `env:"GAMBIT_ARCHIVE_PATH" envDefault:"./gambit.db"`
	// WriteBuffer is the outbound queue depth per connection.
	WriteBuffer int `env:"GAMBIT_WRITE_BUFFER" envDefault:"64"`
	// FramesPerMinute caps inbound frames per connection. Zero disables.
	FramesPerMinute int `env:"GAMBIT_FRAMES_PER_MINUTE" envDefault:"300"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"GAMBIT_LOG_LEVEL" envDefault:"info"`
	// LogFormat is json or console.
	LogFormat string `env:"GAMBIT_LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from the environment on top of defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would only fail later and more confusingly.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen address must not be empty")
	}
	if c.WriteBuffer <= 0 {
		return errors.New("write buffer must be positive")
	}
	if c.FramesPerMinute < 0 {
		return errors.New("frames per minute must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}
