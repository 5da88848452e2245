package logger

import (
	"context"
	"log/slog"
)

// contextKey is used to store the logger in context
type contextKey string

const loggerKey contextKey = "logger"

// ToContext stores a logger in the context
func ToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context.
// If no logger is found, returns the default logger.
// This ensures we never return nil.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// With extracts the logger from context, adds attributes, and returns both
// the enriched logger and a context carrying it:
//
//	log, ctx := logger.With(ctx, "source_id", sourceID)
//	return source.Run(ctx, emit)
func With(ctx context.Context, args ...any) (*slog.Logger, context.Context) {
	logger := FromContext(ctx).With(args...)
	return logger, ToContext(ctx, logger)
}
