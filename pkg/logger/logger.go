package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger

// TraceIDKey is the context key for trace ID
type TraceIDKey struct{}

// Options configures Init
type Options struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json" or "text"
	Dir    string // daily log file directory, empty for stderr only
}

// Init initializes the global logger. Output goes to stderr and, when Dir is
// set, to Dir/grok_search_YYYYMMDD.log. Stdout is reserved for the MCP transport.
func Init(opts Options) error {
	var config zap.Config

	if opts.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	}

	config.Level = zap.NewAtomicLevelAt(ParseLevel(opts.Level))
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	if path, err := LogFilePath(opts.Dir, time.Now()); err == nil && path != "" {
		config.OutputPaths = append(config.OutputPaths, path)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "log directory unavailable, logging to stderr only: %v\n", err)
	}

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	Log = built
	return nil
}

// ParseLevel maps a level name to a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// LogFilePath returns the daily log file in dir, creating dir if needed
func LogFilePath(dir string, now time.Time) (string, error) {
	if dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("grok_search_%s.log", now.Format("20060102"))), nil
}

// Sync flushes any buffered log entries
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// WithTraceID creates a logger with trace ID
func WithTraceID(traceID string) *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log.With(zap.String("trace_id", traceID))
}

// ContextWithTraceID adds trace ID to context
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey{}, traceID)
}

// TraceIDFromContext retrieves trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(TraceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// FromContext returns the global logger tagged with the context's trace ID
func FromContext(ctx context.Context) *zap.Logger {
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		return WithTraceID(traceID)
	}
	if Log == nil {
		return zap.NewNop()
	}
	return Log
}

// Convenience methods for global logger
func Info(msg string, fields ...zap.Field) {
	if Log != nil {
		Log.Info(msg, fields...)
	}
}

func Warn(msg string, fields ...zap.Field) {
	if Log != nil {
		Log.Warn(msg, fields...)
	}
}

func Error(msg string, fields ...zap.Field) {
	if Log != nil {
		Log.Error(msg, fields...)
	}
}

// Named creates a named logger
func Named(name string) *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log.Named(name)
}
