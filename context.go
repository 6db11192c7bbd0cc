package toylsp

import (
	"context"
	"log/slog"

	"github.com/gossip-lsp/toylsp/config"
	"github.com/gossip-lsp/toylsp/document"
	"github.com/gossip-lsp/toylsp/protocol"
)

// Context wraps context.Context with the state a handler may use while it
// processes one message. It must not be retained after the handler returns.
type Context struct {
	context.Context

	// Documents is the session's document store.
	Documents *document.Store

	session *session
}

func (ss *session) newContext(ctx context.Context) *Context {
	return &Context{
		Context:   ctx,
		Documents: ss.docs,
		session:   ss,
	}
}

// ServerInfo returns the server's name and version from the current settings.
func (c *Context) ServerInfo() protocol.ServerInfo {
	cfg := c.Settings()
	return protocol.ServerInfo{
		Name:    cfg.Name,
		Version: cfg.Version,
	}
}

// Settings returns the settings in effect for this message.
func (c *Context) Settings() *config.Settings {
	return c.session.server.settings.Get()
}

// Server returns the underlying Server, providing full access to internals.
func (c *Context) Server() *Server {
	return c.session.server
}

// Logger returns the session's logger.
func (c *Context) Logger() *slog.Logger {
	return c.session.logger
}

// SessionID returns the id attached to every log record of this session.
func (c *Context) SessionID() string {
	return c.session.id
}
