// internal/util/logger.go
package util

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger writes production JSON at info level until InitLogger applies the configured level.
var logger = zap.Must(zap.NewProduction()).Sugar()

// InitLogger initializes the global structured logger with the given level.
// It uses zap's production JSON encoder and also replaces zap's package globals.
func InitLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(base)

	logger = base.Sugar()
	return logger, nil
}

// GetLogger returns the global logger.
func GetLogger() *zap.SugaredLogger {
	return logger
}

// SetLogger replaces the global logger and returns a func that restores the previous one.
func SetLogger(l *zap.SugaredLogger) (restore func()) {
	prev := logger
	logger = l
	return func() { logger = prev }
}
