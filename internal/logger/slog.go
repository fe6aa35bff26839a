package logger

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/lmittmann/tint"
)

// StructuredLogger adapts log/slog to the Logger interface.
type StructuredLogger struct {
	logger *slog.Logger
}

// NewTintLogger renders colorized slog output through tint.
func NewTintLogger(writer io.Writer, level LogLevel) *StructuredLogger {
	handler := tint.NewHandler(writer, &tint.Options{
		Level:      toSlogLevel(level),
		TimeFormat: time.Kitchen,
	})
	return &StructuredLogger{logger: slog.New(handler)}
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *StructuredLogger) Debug(component, message string, fields map[string]interface{}) {
	l.log(slog.LevelDebug, component, message, fields)
}

func (l *StructuredLogger) Info(component, message string, fields map[string]interface{}) {
	l.log(slog.LevelInfo, component, message, fields)
}

func (l *StructuredLogger) Warning(component, message string, fields map[string]interface{}) {
	l.log(slog.LevelWarn, component, message, fields)
}

func (l *StructuredLogger) Error(component string, err error, fields map[string]interface{}) {
	args := l.attrs(component, fields)
	if err != nil {
		args = append(args, tint.Err(err))
	}
	l.logger.Log(context.Background(), slog.LevelError, "operation failed", args...)
}

func (l *StructuredLogger) log(level slog.Level, component, message string, fields map[string]interface{}) {
	l.logger.Log(context.Background(), level, message, l.attrs(component, fields)...)
}

// attrs sorts field keys so output is stable between runs.
func (l *StructuredLogger) attrs(component string, fields map[string]interface{}) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(fields)*2+2)
	args = append(args, "component", component)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}
