package utils

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"strings"
)

var ErrUnknownLogLevel = errors.New("unknown log level")

// NewLogger returns a JSON production logger at the given level, or a console development
// logger when the level is "debug".
func NewLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	case "info", "":
		cfg = zap.NewProductionConfig()
	case "warn", "warning":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return nil, errors.Wrapf(ErrUnknownLogLevel, "%q (expected debug, info, warn, or error)", level)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "could not build logger")
	}
	return logger, nil
}
