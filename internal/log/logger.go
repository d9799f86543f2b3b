package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	CorrelatedIDKey     contextKey = "correlation_id"
	LoggerKeyForContext contextKey = "logger"
)

type Logger struct {
	*slog.Logger
}

func NewLoggerWithJSONOutput() *Logger {
	return NewLogger(os.Stdout, levelFromEnv())
}

// NewLogger is mostly useful in tests that need to inspect output.
func NewLogger(w io.Writer, level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})),
	}
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) WithCorrelationID(ctx context.Context) *Logger {
	id := GetOrGenerateCorrelationID(ctx)

	return &Logger{
		Logger: l.Logger.With(string(CorrelatedIDKey), id),
	}
}

func GetOrGenerateCorrelationID(ctx context.Context) string {
	if id := ctx.Value(CorrelatedIDKey); id != nil {
		if s, ok := id.(string); ok {
			return s
		}
	}

	return GenerateCorrelationID()
}

func GenerateCorrelationID() string {
	return uuid.New().String()
}

func GetLoggerInstanceFromContext(ctx context.Context, fallbackLogger *Logger) *Logger {
	if ctx != nil {
		if logger := ctx.Value(LoggerKeyForContext); logger != nil {
			if l, ok := logger.(*Logger); ok {
				return l
			}
		}

		if fallbackLogger != nil {
			return fallbackLogger.WithCorrelationID(ctx)
		}
		return NewLoggerWithJSONOutput().WithCorrelationID(ctx)
	}

	if fallbackLogger != nil {
		return fallbackLogger
	}

	return NewLoggerWithJSONOutput()
}
