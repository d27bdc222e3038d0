package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the severity of a service event.
type Level string

// Event levels.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Events records service-level events correlated by request id. Write
// failures inside zap are reported to the logger's ErrorOutput and never
// reach the caller.
type Events struct {
	logger  *zap.Logger
	service string
}

// NewEvents wraps logger for the named service.
func NewEvents(logger *zap.Logger, service string) *Events {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Events{logger: logger, service: service}
}

// Info logs a successful outcome.
func (e *Events) Info(ctx context.Context, event, message string, params any) {
	e.Log(ctx, LevelInfo, event, message, params, nil)
}

// Warn logs a recoverable problem, such as bad input that was defaulted.
func (e *Events) Warn(ctx context.Context, event, message string, params any) {
	e.Log(ctx, LevelWarning, event, message, params, nil)
}

// Error logs a failed operation along with its cause.
func (e *Events) Error(ctx context.Context, event, message string, params any, err error) {
	e.Log(ctx, LevelError, event, message, params, err)
}

// Log writes one structured event entry.
func (e *Events) Log(ctx context.Context, level Level, event, message string, params any, err error) {
	if e == nil {
		return
	}
	defer func() {
		// a broken params value must not take down the request
		_ = recover()
	}()

	fields := []zap.Field{
		zap.String("service", e.service),
		zap.String("event", event),
		zap.String("request_id", RequestID(ctx)),
		zap.Any("params", params),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if ce := e.logger.Check(zapLevel(level), message); ce != nil {
		ce.Write(fields...)
	}
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
