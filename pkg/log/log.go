// Package log configures the process-wide slog logger for caseflow services.
package log

import (
	"log/slog"
	"os"
)

// Setup installs the default logger at the given level. LOG_FORMAT=json
// switches to the JSON handler for log aggregation.
func Setup(logLevel string) {
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, options)
	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}

	slog.SetDefault(slog.New(handler))
}

// WithModule returns a logger tagged with the component name, so every
// line a component emits can be traced back to it.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
