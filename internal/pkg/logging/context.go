package logging

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores the given logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext retrieves a logger from the context, falling back to the global.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return zap.S()
	}
	if logger, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok && logger != nil {
		return logger
	}
	return zap.S()
}
