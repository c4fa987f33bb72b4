// Package logging builds the structured slog logger used across gno's
// core packages: a JSON handler over a single caller-supplied writer
// (stderr by default), level driven by configuration rather than a
// package-level global. No file sink or multi-writer is built in.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config configures a logger.
type Config struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string
	// Writer receives log output. Defaults to os.Stderr when nil.
	Writer io.Writer
}

// ConfigFromEnv builds a Config from GNO_LOG_LEVEL, defaulting to info.
func ConfigFromEnv() Config {
	return Config{Level: os.Getenv("GNO_LOG_LEVEL")}
}

// New builds a *slog.Logger from cfg. It never returns nil.
func New(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	})
	return slog.New(handler)
}

// ParseLevel converts a level string to a slog.Level, defaulting to Info
// for empty or unrecognized input.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OrDefault returns l if non-nil, else slog.Default(). Components accept
// a *slog.Logger parameter and funnel it through this helper so a nil
// logger is always safe to pass (no package-level singleton is ever
// mutated as a side effect of constructing a component).
func OrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
