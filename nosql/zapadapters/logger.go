// Package zapadapters routes engine logs into an existing zap setup.
package zapadapters

import (
	"go.uber.org/zap"

	"github.com/polystore-db/polystore-go/nosql"
)

// Logger implements nosql.Logger on a zap.SugaredLogger. The contract's
// slog-style key-value args map directly onto zap's loosely typed
// Debugw/Infow/Warnw/Errorw methods.
type Logger struct {
	logger *zap.SugaredLogger
}

var _ nosql.Logger = (*Logger)(nil)

// NewLogger creates an adapter on top of the given zap logger.
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.Sugar()}
}

// NewSugaredLogger creates an adapter on top of an already sugared logger.
func NewSugaredLogger(logger *zap.SugaredLogger) *Logger {
	return &Logger{logger: logger}
}

// Debug logs a debug message with key-value args.
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debugw(msg, args...)
}

// Info logs an info message with key-value args.
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Infow(msg, args...)
}

// Warn logs a warning message with key-value args.
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warnw(msg, args...)
}

// Error logs an error message with key-value args.
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Errorw(msg, args...)
}
