package toylsp

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/gossip-lsp/toylsp/jsonrpc"
	mw "github.com/gossip-lsp/toylsp/middleware"
	"github.com/gossip-lsp/toylsp/transport"
)

// Serve runs one session using the given transport options.
// If no ServeOption is provided, stdio is used by default.
func Serve(s *Server, opts ...ServeOption) error {
	return ServeContext(context.Background(), s, opts...)
}

// ServeContext is like Serve but also ends the session when ctx is done.
// The session ends without error when the peer closes the stream, after
// an exit notification, or on cancellation.
func ServeContext(ctx context.Context, s *Server, opts ...ServeOption) error {
	cfg := &serveConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.transport == nil && cfg.transportFactory != nil {
		var err error
		cfg.transport, err = cfg.transportFactory()
		if err != nil {
			return fmt.Errorf("creating transport: %w", err)
		}
	}
	if cfg.transport == nil {
		cfg.transport = transport.Stdio()
	}

	settings := s.settings.Get()
	sess := newSession(s, uuid.NewString())
	metrics := mw.NewMetrics()

	// Wrap dispatch with middleware chain
	chain := mw.Chain(append([]mw.Middleware{
		mw.Recovery(sess.logger),
		mw.Logging(sess.logger),
		mw.Telemetry(metrics),
	}, s.middlewares...)...)
	handler := chain(sess.dispatchRequest)
	notifHandler := chain(sess.dispatchNotification)

	codec := jsonrpc.NewCodec(cfg.transport, cfg.transport,
		jsonrpc.WithMaxContentLength(settings.MaxContentLength),
	)
	conn := jsonrpc.NewConn(codec,
		jsonrpc.Handler(handler),
		func(ctx context.Context, method string, params jsonrpc.RawMessage) {
			_, _ = notifHandler(ctx, method, params)
		},
		jsonrpc.WithConnLogger(sess.logger),
		jsonrpc.WithParseErrorReplies(s.replyErrors),
	)
	sess.conn = conn

	closeTransport := sync.OnceValue(cfg.transport.Close)
	stop := context.AfterFunc(ctx, func() { _ = closeTransport() })
	defer stop()

	sess.logger.Info("session started",
		"name", settings.Name,
		"version", settings.Version,
	)

	err := conn.Run(ctx)
	if ctx.Err() != nil {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("server error: %w", err)
	}

	sess.logger.Info("session ended",
		"documents", sess.docs.Len(),
		"metrics", metrics,
	)
	return multierr.Append(err, closeTransport())
}
