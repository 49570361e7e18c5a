package cmd

import (
	"io"
	"log/slog"
	"strings"

	"github.com/dendrascience/contentsync/config"
)

// parseLevel maps a configured level name to a slog level. Unknown names
// fall back to warn; config validation rejects them earlier.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// verbosityLevel returns the level selected by -v flags. The boolean is false
// when no flag was given and the configured level applies.
func verbosityLevel(verbose int) (slog.Level, bool) {
	switch {
	case verbose <= 0:
		return 0, false
	case verbose == 1:
		return slog.LevelInfo, true
	default:
		return slog.LevelDebug, true
	}
}

// newLogger builds the process logger. -v flags override the configured level.
func newLogger(w io.Writer, cfg config.LoggingConfig, verbose int) *slog.Logger {
	level := parseLevel(cfg.Level)
	if l, ok := verbosityLevel(verbose); ok {
		level = l
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
