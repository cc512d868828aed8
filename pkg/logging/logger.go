// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides structured logging
type Logger interface {
	// Debug logs a debug message
	Debug(msg string, fields ...Field)

	// Info logs an info message
	Info(msg string, fields ...Field)

	// Warn logs a warning message
	Warn(msg string, fields ...Field)

	// Error logs an error message
	Error(msg string, fields ...Field)

	// WithFields returns a new logger with the given fields
	WithFields(fields ...Field) Logger
}

// Field represents a key-value pair in a log entry
type Field struct {
	// Key is the field name
	Key string

	// Value is the field value
	Value interface{}
}

// F is a shorthand constructor for a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config contains configuration for the logger
type Config struct {
	// Level is the minimum log level to output ("debug", "info", "warn", "error")
	Level string `json:"level"`

	// Format is the log format ("json", "text")
	Format string `json:"format"`
}

// slogLogger implements Logger on top of log/slog
type slogLogger struct {
	base *slog.Logger
}

// New creates a logger writing to w according to the configuration.
// Log output goes to the given writer; servers speaking a protocol on
// stdout (MCP stdio transport) must pass stderr here.
func New(cfg Config, w io.Writer) Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &slogLogger{base: slog.New(handler)}
}

// NewDefault creates an info-level JSON logger writing to stderr
func NewDefault() Logger {
	return New(Config{Level: "info", Format: "json"}, os.Stderr)
}

// NewNop creates a logger that discards everything
func NewNop() Logger {
	return New(Config{Level: "error"}, io.Discard)
}

func (l *slogLogger) Debug(msg string, fields ...Field) {
	l.base.Debug(msg, attrs(fields)...)
}

func (l *slogLogger) Info(msg string, fields ...Field) {
	l.base.Info(msg, attrs(fields)...)
}

func (l *slogLogger) Warn(msg string, fields ...Field) {
	l.base.Warn(msg, attrs(fields)...)
}

func (l *slogLogger) Error(msg string, fields ...Field) {
	l.base.Error(msg, attrs(fields)...)
}

func (l *slogLogger) WithFields(fields ...Field) Logger {
	return &slogLogger{base: l.base.With(attrs(fields)...)}
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}
