// Package log provides structured logging for flight school.
// It wraps slog with sensible defaults for production use.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	slogmulti "github.com/samber/slog-multi"
)

var (
	logger atomic.Pointer[slog.Logger]
	level  = new(slog.LevelVar)
	once   sync.Once
)

// Options configures Setup.
type Options struct {
	Level string    // "debug", "info", "warn", "error"
	File  string    // optional path; JSON lines are appended
	Out   io.Writer // console output, os.Stdout when nil
}

// Init initializes the global logger with the specified level.
// Valid levels: "debug", "info", "warn", "error"
func Init(level string) {
	once.Do(func() {
		Setup(Options{Level: level})
	})
}

// Setup replaces the global logger. The console handler is JSON when
// GO_ENV=production and text otherwise. With File set, records are also
// written to that file as JSON. The returned closer closes the file.
func Setup(opts Options) (io.Closer, error) {
	SetLevel(opts.Level)

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	// Use JSON in production, text in development
	var console slog.Handler
	if os.Getenv("GO_ENV") == "production" {
		console = slog.NewJSONHandler(out, handlerOpts)
	} else {
		console = slog.NewTextHandler(out, handlerOpts)
	}

	handlers := []slog.Handler{console}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, handlerOpts))
		closer = f
	}

	l := slog.New(slogmulti.Fanout(handlers...))
	logger.Store(l)
	slog.SetDefault(l)
	return closer, nil
}

// SetLevel changes the level of the global logger.
func SetLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// L returns the global logger instance.
func L() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	Init("info")
	return logger.Load()
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
