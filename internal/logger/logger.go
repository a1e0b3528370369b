// Package logger wraps zerolog for the CLI, the engine and the MCP server.
// Logs always go to stderr so stdout stays reserved for results and the stdio protocol.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	loggerKey    ctxKey = "logger"
	estimatorKey ctxKey = "estimator"
)

var globalLogger = New(os.Stderr, "warn", false)

// New builds a logger writing to w. Unknown levels fall back to warn.
func New(w io.Writer, level string, jsonFormat bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	output := w
	if !jsonFormat {
		output = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	}

	return zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "delphi").
		Logger()
}

// Init replaces the global logger.
func Init(level string, jsonFormat bool) {
	globalLogger = New(os.Stderr, level, jsonFormat)
}

// Global returns the global logger.
func Global() *zerolog.Logger {
	return &globalLogger
}

// With returns a child of the global logger tagged with a component name.
func With(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}

// Get returns the logger stored in ctx, or the global one.
func Get(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &globalLogger
	}
	if l, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok {
		return l
	}
	return &globalLogger
}

// WithEstimator tags the context logger with the estimator being handled.
func WithEstimator(ctx context.Context, name string) context.Context {
	l := Get(ctx).With().Str("estimator", name).Logger()
	ctx = context.WithValue(ctx, estimatorKey, name)
	return context.WithValue(ctx, loggerKey, &l)
}

// GetEstimator extracts the estimator name from ctx.
func GetEstimator(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if name, ok := ctx.Value(estimatorKey).(string); ok {
		return name
	}
	return ""
}
