package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/heartmarshall/kotoba-backend/internal/config"
)

// NewLogger builds the process logger, writing to w, and installs it as the
// slog default. Every record carries the app name and build version so
// server and kotobactl output can be told apart in a shared sink.
//
// Format "json" is meant for production; "text" adds source locations.
// Level is one of debug, info, warn, error (case-insensitive), default info.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Format, "text"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With(
		slog.String("app", "kotoba"),
		slog.String("version", Version),
	)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
