// Package logger builds the process-wide zap logger from configuration.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger for the given level and format. format is either
// "json" for production output or "console" for development output; an
// optional file path mirrors output to disk alongside stdout.
func New(level, format, logFile string) (*zap.Logger, error) {
	var config zap.Config
	if format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	if logFile != "" {
		config.OutputPaths = []string{logFile, "stdout"}
	}

	config.Level = zap.NewAtomicLevelAt(parseLevel(level))

	log, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return log, nil
}

// parseLevel maps a level name to its zap level, defaulting to info.
func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
