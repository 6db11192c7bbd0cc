package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gossip-lsp/toylsp/jsonrpc"
)

// Logging returns middleware that logs each message's method, duration, and errors.
// Dropped messages are logged where they are dropped, so they only show up
// here at debug level.
func Logging(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
			start := time.Now()
			result, err := next(ctx, method, params)
			duration := time.Since(start)

			attrs := []slog.Attr{
				slog.String("method", method),
				slog.Duration("duration", duration),
			}
			switch {
			case err == nil:
				logger.LogAttrs(ctx, slog.LevelDebug, "message handled", attrs...)
			case errors.Is(err, jsonrpc.ErrNoResponse):
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelDebug, "message dropped", attrs...)
			default:
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)
			}

			return result, err
		}
	}
}
