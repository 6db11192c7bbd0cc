package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gossip-lsp/toylsp/jsonrpc"
)

// Recovery returns middleware that turns a panicking handler into an
// internal error for that one message. The session keeps running.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, method string, params jsonrpc.RawMessage) (result interface{}, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered in handler",
						"method", method,
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()),
					)
					result = nil
					err = &jsonrpc.Error{
						Code:    jsonrpc.CodeInternalError,
						Message: fmt.Sprintf("internal error handling %s", method),
					}
				}
			}()
			return next(ctx, method, params)
		}
	}
}
