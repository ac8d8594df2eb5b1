package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, "./gambit.db", cfg.ArchivePath)
	assert.Equal(t, 64, cfg.WriteBuffer)
	assert.Equal(t, 300, cfg.FramesPerMinute)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GAMBIT_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("GAMBIT_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("GAMBIT_ARCHIVE_PATH", "")
	t.Setenv("GAMBIT_LOG_LEVEL", "debug")
	t.Setenv("GAMBIT_LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.ArchivePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ListenAddr:      ":8080",
			WriteBuffer:     64,
			FramesPerMinute: 300,
			LogLevel:        "info",
			LogFormat:       "json",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen address", func(c *Config) { c.ListenAddr = "" }},
		{"zero write buffer", func(c *Config) { c.WriteBuffer = 0 }},
		{"negative frame limit", func(c *Config) { c.FramesPerMinute = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}
