// Package logging builds the zap logger shared by the CLI and the API server.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a level name to a zap level. Unknown names are an error.
func ParseLevel(levelStr string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", levelStr)
	}
}

// New returns a logger writing to stderr. format "json" selects the production
// encoder; anything else selects the human-readable development encoder.
// stdout is left for command results.
func New(levelStr, format string) (*zap.Logger, error) {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if strings.EqualFold(format, "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Must is New for callers that cannot proceed without a logger.
// It falls back to a no-op logger instead of panicking.
func Must(levelStr, format string) *zap.Logger {
	logger, err := New(levelStr, format)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
