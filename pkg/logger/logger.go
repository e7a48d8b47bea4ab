// Package logger provides structured logging for Sentinel.
package logger

import (
	"log/slog"
	"os"
	"sync"
)

// Logger is the logging interface used throughout Sentinel. It is satisfied
// by the slog-backed implementation below and by MockLogger in tests.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

var (
	globalMu sync.RWMutex
	global   Logger = NewSlogLogger(false, "text")
)

// SlogLogger wraps *slog.Logger to satisfy the Logger interface.
type SlogLogger struct {
	inner *slog.Logger
}

// NewSlogLogger creates a slog-backed logger writing to stderr.
func NewSlogLogger(debug bool, format string) *SlogLogger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return &SlogLogger{inner: slog.New(handler)}
}

// Debug logs a debug message.
func (l *SlogLogger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs an info message.
func (l *SlogLogger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs a warning message.
func (l *SlogLogger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs an error message.
func (l *SlogLogger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }

// With returns a new logger with additional attributes.
func (l *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{inner: l.inner.With(args...)}
}

// SetupLogger configures the global logger.
func SetupLogger(debug bool, format string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = NewSlogLogger(debug, format)
}

// GetGlobalLogger returns the process-wide default logger.
func GetGlobalLogger() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Debug logs a debug message on the global logger.
func Debug(msg string, args ...any) { GetGlobalLogger().Debug(msg, args...) }

// Info logs an info message on the global logger.
func Info(msg string, args ...any) { GetGlobalLogger().Info(msg, args...) }

// Warn logs a warning message on the global logger.
func Warn(msg string, args ...any) { GetGlobalLogger().Warn(msg, args...) }

// Error logs an error message on the global logger.
func Error(msg string, args ...any) { GetGlobalLogger().Error(msg, args...) }
