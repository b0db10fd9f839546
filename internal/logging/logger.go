// Package logging configures structured logging using log/slog.
//
// Standard output carries the tool protocol, so every handler built here
// writes to the supplied writer (stderr in production).
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Setup builds a logger for the given level and format and installs it as the
// slog default.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ForInvocation returns a logger tagged with a fresh invocation_id, so every
// record of one request/response cycle can be correlated.
//
// Usage:
//
//	log := logging.ForInvocation(base)
//	log.Info("request decoded", "file", path)
func ForInvocation(base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With(slog.String("invocation_id", uuid.NewString()))
}
