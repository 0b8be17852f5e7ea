// Package logging builds the application's structured logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tychoorderbook/internal/config"
)

// New builds a *zap.Logger from LoggingConfig. Format "json" (default)
// uses zap's production JSON encoder; any other value falls back to a
// human-readable console encoder for local development.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var encoderCfg zapcore.EncoderConfig
	var zapCfg zap.Config
	if strings.ToLower(cfg.Format) == "console" {
		zapCfg = zap.NewDevelopmentConfig()
		encoderCfg = zapCfg.EncoderConfig
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
		encoderCfg = zapCfg.EncoderConfig
		encoderCfg.TimeKey = "ts"
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zapCfg.EncoderConfig = encoderCfg
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// Must builds the logger and panics on error, for use at process startup
// where there is no sensible recovery path.
func Must(cfg config.LoggingConfig) *zap.Logger {
	logger, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return logger
}

// Nop returns a logger that discards everything, used as a safe default
// in tests and constructors that accept a nil logger.
func Nop() *zap.Logger {
	return zap.NewNop()
}
