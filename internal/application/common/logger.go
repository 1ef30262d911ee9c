package common

import (
	"context"
	"log/slog"
)

// Context keys for passing the request-scoped logger through context
type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, falling back to the
// process default when none was attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
