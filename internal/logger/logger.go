// Package logger holds the process-wide structured logger used by heapkit.
// Output is discarded unless HEAPKIT_LOG_ALLOC is set or a command enables it.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvVar enables allocation logging on stderr when set to a non-empty value.
// "debug" (the default for any other value) logs every split and coalesce;
// "warn" only logs detected corruption.
const EnvVar = "HEAPKIT_LOG_ALLOC"

// L is the global logger instance. It's initialized from the environment and
// discards all output when EnvVar is unset.
var L = FromEnv()

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Output  io.Writer  // Destination. Default: os.Stderr
	Level   slog.Level // Minimum log level
	JSON    bool       // Use the JSON handler instead of text
}

// Init replaces L. Call from main() before any log calls.
func Init(opts Options) {
	L = New(opts)
}

// New builds a logger without touching L.
func New(opts Options) *slog.Logger {
	if !opts.Enabled {
		return slog.New(slog.DiscardHandler)
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

// FromEnv builds a logger from EnvVar.
func FromEnv() *slog.Logger {
	v := os.Getenv(EnvVar)
	if v == "" {
		return New(Options{})
	}
	level := slog.LevelDebug
	if strings.EqualFold(v, "warn") {
		level = slog.LevelWarn
	}
	return New(Options{Enabled: true, Level: level})
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
