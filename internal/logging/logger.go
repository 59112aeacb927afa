// Package logging builds the zerolog loggers used by the memocache binaries.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	Output     io.Writer // nil => os.Stderr
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// New creates a new zerolog logger with the given configuration.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	}

	return zerolog.New(out).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps trace|debug|info|warn|error to a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("logging: unknown level %q", s)
}

// NewFromEnv creates a logger based on environment variables
// MEMOCACHE_LOG_LEVEL: trace, debug, info, warn, error (default: info)
// MEMOCACHE_LOG_FORMAT: json, console (default: console)
func NewFromEnv() zerolog.Logger {
	return New(envConfig())
}

// envConfig is DefaultConfig overridden by the MEMOCACHE_LOG_* variables.
// Unknown values are ignored.
func envConfig() Config {
	cfg := DefaultConfig()

	if lvl, err := ParseLevel(os.Getenv("MEMOCACHE_LOG_LEVEL")); err == nil {
		cfg.Level = lvl
	}
	switch f := os.Getenv("MEMOCACHE_LOG_FORMAT"); f {
	case "json", "console":
		cfg.Format = f
	}
	return cfg
}
