package toylsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gossip-lsp/toylsp/document"
	"github.com/gossip-lsp/toylsp/jsonrpc"
	"github.com/gossip-lsp/toylsp/protocol"
)

// session is the state of one connection: its document store, its logger
// and the lifecycle flags. The connection loop is sequential, so none of it
// is accessed concurrently.
type session struct {
	server *Server
	id     string
	logger *slog.Logger
	docs   *document.Store
	conn   *jsonrpc.Conn

	shutdown bool
}

func newSession(s *Server, id string) *session {
	return &session{
		server: s,
		id:     id,
		logger: s.logger.With("session", id),
		docs:   document.NewStore(),
	}
}

// dispatchRequest is the innermost request handler of the middleware chain.
func (ss *session) dispatchRequest(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
	if ss.shutdown && method != protocol.MethodShutdown {
		ss.logger.Warn("dropping request after shutdown", "method", method)
		return nil, ss.reject(jsonrpc.CodeInvalidRequest, fmt.Errorf("%s: %w", method, ErrShutdown))
	}

	r, ok := ss.server.getRoute(method)
	if !ok || r.notification {
		ss.logger.Warn("unrecognized method", "method", method, "kind", "request")
		return nil, ss.reject(jsonrpc.CodeMethodNotFound, fmt.Errorf("%s: %w", method, ErrMethodNotFound))
	}

	result, err := r.call(ss.newContext(ctx), params)
	var pe *ParamsError
	if errors.As(err, &pe) {
		ss.logger.Warn("failed to decode params", "method", method, "error", pe.Err)
		return nil, ss.reject(jsonrpc.CodeInvalidParams, pe)
	}
	return result, err
}

// dispatchNotification is the innermost notification handler of the
// middleware chain. Its result is never sent; errors are for the
// middleware to see.
func (ss *session) dispatchNotification(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
	if method == protocol.MethodExit {
		ss.logger.Info("received exit notification", "clean", ss.shutdown)
		ss.conn.Close()
		return nil, nil
	}

	r, ok := ss.server.getRoute(method)
	if !ok || !r.notification {
		// $/ notifications may be ignored by servers that do not implement them.
		if strings.HasPrefix(method, "$/") {
			ss.logger.Debug("ignoring notification", "method", method)
		} else {
			ss.logger.Warn("unrecognized method", "method", method, "kind", "notification")
		}
		return nil, fmt.Errorf("%s: %w: %w", method, ErrMethodNotFound, jsonrpc.ErrNoResponse)
	}

	_, err := r.call(ss.newContext(ctx), params)
	var pe *ParamsError
	switch {
	case errors.As(err, &pe):
		ss.logger.Warn("failed to decode params", "method", method, "error", pe.Err)
		return nil, fmt.Errorf("%w: %w", pe, jsonrpc.ErrNoResponse)
	case err != nil:
		ss.logger.Warn("notification handler failed", "method", method, "error", err)
	}
	return nil, err
}

// reject turns err into the reply for a request that will not be handled.
// Unless error replies are enabled, the request is dropped.
func (ss *session) reject(code int, err error) error {
	if ss.server.replyErrors() {
		return &jsonrpc.Error{Code: code, Message: err.Error()}
	}
	return fmt.Errorf("%w: %w", err, jsonrpc.ErrNoResponse)
}
