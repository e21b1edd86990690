// Package logging defines the structured-logging interface used across the
// project and its slog and logrus implementations.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "mode", mode)
type Logger interface {
	// Debug logs diagnostic detail that is off in normal operation.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Options selects a Logger implementation.
type Options struct {
	Backend string // "slog" (default) or "logrus"
	Level   string // debug, info, warn, error
	Format  string // json (default) or text
	Output  io.Writer
}

// New builds a Logger from opts.
func New(opts Options) (Logger, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "slog":
		level, err := parseSlogLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		ho := &slog.HandlerOptions{Level: level}
		var h slog.Handler
		if strings.EqualFold(opts.Format, "text") {
			h = slog.NewTextHandler(opts.Output, ho)
		} else {
			h = slog.NewJSONHandler(opts.Output, ho)
		}
		return NewSlogLogger(slog.New(h)), nil

	case "logrus":
		l := logrus.New()
		l.SetOutput(opts.Output)
		if strings.EqualFold(opts.Format, "text") {
			l.SetFormatter(&logrus.TextFormatter{DisableColors: true})
		} else {
			l.SetFormatter(&logrus.JSONFormatter{})
		}
		lvl := opts.Level
		if lvl == "" {
			lvl = "info"
		}
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		l.SetLevel(level)
		return NewLogrusLogger(logrus.NewEntry(l)), nil
	}
	return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
}

func parseSlogLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}
