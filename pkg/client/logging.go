package client

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DeBrosOfficial/notefeed/pkg/logging"
)

// newClientLogger creates a zap.Logger based on quiet mode preference.
// Quiet mode only lets warnings and errors through.
func newClientLogger(quiet bool) (*zap.Logger, error) {
	level := zapcore.DebugLevel
	if quiet {
		level = zapcore.WarnLevel
	}
	logger, err := logging.New(logging.Options{Level: level, EnableColors: true})
	if err != nil {
		return nil, err
	}
	return logger.For(logging.ComponentClient), nil
}
