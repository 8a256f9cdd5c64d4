// Package logging builds the application's slog loggers. Components
// derive their own loggers from the base one via With("component", ...).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a console slog.Logger for the given level string. The
// level "off" silences output entirely, which tests use.
func New(level string) *slog.Logger {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "off" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromString(normalized),
	})
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch value {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
