// Package logging builds the structured logger used across famtree.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ersonp/famtree-core/internal/infrastructure/config"
)

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
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

// NewLogger returns a logger writing to w in the given format ("json" or "text").
func NewLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(levelStr)}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler)
}

// FromConfig builds a logger from the log section. When a file is configured,
// output goes to a rotating log file instead of fallback. The returned closer
// must be called on shutdown.
func FromConfig(cfg config.LogConfig, fallback io.Writer) (*slog.Logger, io.Closer) {
	if cfg.File == "" {
		return NewLogger(cfg.Level, cfg.Format, fallback), nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	return NewLogger(cfg.Level, cfg.Format, rotator), rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
