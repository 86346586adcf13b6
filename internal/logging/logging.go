// Package logging builds the application's zap logger from configuration.
package logging

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mrlokans/matjip/internal/config"
)

// Common field names, kept consistent across packages.
const (
	FieldRegion   = "region"
	FieldUserID   = "uid"
	FieldDuration = "duration"
	FieldTotal    = "total"
	FieldNew      = "new"
	FieldTaskID   = "taskId"
)

// New builds a logger writing to stderr. Development mode uses a colored
// console encoder, otherwise JSON is emitted.
func New(cfg config.Log) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
		}
	}

	var encoder zapcore.Encoder
	if cfg.Development {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCaller()), nil
}

// MustNew is New for command bootstrap code; it falls back to a development
// logger when the configuration is invalid.
func MustNew(cfg config.Log) *zap.Logger {
	logger, err := New(cfg)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Warn("falling back to development logger", zap.Error(err))
		return fallback
	}
	return logger
}
