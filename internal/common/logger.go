package common

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// Fields represents structured logging fields.
type Fields map[string]any

// ParseLevel maps a configuration string to a slog level. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// SetupLogger installs the default logger writing to w in the given format.
func SetupLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// LogError logs an error with additional context.
func LogError(err error, msg string, fields Fields) {
	attrs := make([]slog.Attr, 0, len(fields)+1)
	attrs = append(attrs, slog.String("error", err.Error()))
	attrs = append(attrs, toAttrs(fields)...)

	slog.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

// LogWarn logs a warning with fields.
func LogWarn(msg string, fields Fields) {
	slog.LogAttrs(context.Background(), slog.LevelWarn, msg, toAttrs(fields)...)
}

// LogInfo logs an info message with fields.
func LogInfo(msg string, fields Fields) {
	slog.LogAttrs(context.Background(), slog.LevelInfo, msg, toAttrs(fields)...)
}

// LogDebug logs a debug message with fields.
func LogDebug(msg string, fields Fields) {
	slog.LogAttrs(context.Background(), slog.LevelDebug, msg, toAttrs(fields)...)
}

// toAttrs converts fields in key order so log lines are stable.
func toAttrs(fields Fields) []slog.Attr {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return attrs
}
