// Package logging provides structured logging utilities.
//
// Console logs are formatted as:
// [LEVEL] [SCOPE] [HH:MM:SS] message key=value
//
// Set format to "json" for machine-readable output.
package logging

import (
	"log/slog"
	"os"

	"github.com/contaflow/reconcile-api/internal/infrastructure/config"
)

// NewLogger creates a structured logger based on config
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = NewConsoleHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// NewLoggerWithScope creates a logger with a scope prefix (e.g., "api", "import").
// Useful for creating scoped loggers that can be injected into subsystems.
func NewLoggerWithScope(cfg config.LoggingConfig, scope string) *slog.Logger {
	logger := NewLogger(cfg)
	return logger.With("scope", scope)
}
