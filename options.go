package toylsp

import (
	"log/slog"

	"github.com/gossip-lsp/toylsp/config"
	"github.com/gossip-lsp/toylsp/middleware"
	"github.com/gossip-lsp/toylsp/transport"
)

// Option configures a Server during construction.
type Option func(*Server)

// ServeOption configures how the server is served.
type ServeOption func(*serveConfig)

type serveConfig struct {
	transport        transport.Transport
	transportFactory func() (transport.Transport, error)
}

// WithLogger sets a custom slog logger on the server.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithSettings makes the server read its settings from store, so reloads
// swapped into it take effect on the next message.
func WithSettings(store *config.Store[config.Settings]) Option {
	return func(s *Server) {
		s.settings = store
	}
}

// WithMiddleware adds middleware to the server's dispatch chain.
// Middleware is applied in order: the first middleware is outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, mws...)
	}
}

// WithStdio configures the server to communicate over stdin/stdout.
func WithStdio() ServeOption {
	return func(cfg *serveConfig) {
		cfg.transport = transport.Stdio()
	}
}

// WithTransport configures the server to use a specific transport.
func WithTransport(t transport.Transport) ServeOption {
	return func(cfg *serveConfig) {
		cfg.transport = t
	}
}

// WithTCP configures the server to listen on a TCP address (e.g., ":9257").
func WithTCP(addr string) ServeOption {
	return func(cfg *serveConfig) {
		cfg.transportFactory = func() (transport.Transport, error) {
			return transport.ListenTCP(addr)
		}
	}
}

// WithSocket configures the server to listen on a Unix domain socket.
func WithSocket(path string) ServeOption {
	return func(cfg *serveConfig) {
		cfg.transportFactory = func() (transport.Transport, error) {
			return transport.ListenSocket(path)
		}
	}
}

// WithWebSocket configures the server to listen for WebSocket connections.
func WithWebSocket(addr string) ServeOption {
	return func(cfg *serveConfig) {
		cfg.transportFactory = func() (transport.Transport, error) {
			return transport.ListenWebSocket(addr)
		}
	}
}
