package observability

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"finitefield.org/storefront/internal/platform/requestctx"
)

// logLevelKeys are consulted in order; the first parseable value wins.
var logLevelKeys = []string{"STOREFRONT_LOG_LEVEL", "LOG_LEVEL"}

// NewLogger builds the JSON logger for service. Entries use Cloud Logging field names and
// carry the service name.
func NewLogger(service string) (*zap.Logger, error) {
	return newLogger(service, logLevel(os.LookupEnv))
}

func newLogger(service string, level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "message",
			TimeKey:        "timestamp",
			LevelKey:       "severity",
			NameKey:        "logger",
			CallerKey:      "caller",
			StacktraceKey:  "stacktrace",
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	if service != "" {
		cfg.InitialFields = map[string]any{"service": service}
	}
	return cfg.Build()
}

// logLevel resolves the configured level, defaulting to info when unset or invalid.
func logLevel(lookup func(string) (string, bool)) zapcore.Level {
	for _, key := range logLevelKeys {
		raw, ok := lookup(key)
		if !ok {
			continue
		}
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(raw)))); err == nil {
			return level
		}
	}
	return zapcore.InfoLevel
}

// WithLogger injects the logger into the provided context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return requestctx.WithLogger(ctx, logger)
}

// ConnectionLogger scopes logger to one relay connection.
func ConnectionLogger(logger *zap.Logger, connID, vendorID, page string) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.Named("relay").With(
		zap.String("connection_id", connID),
		zap.String("vendor_id", vendorID),
		zap.String("page", page),
	)
}
