// Package jsonrpc implements Content-Length framed JSON-RPC 2.0 messaging,
// as defined by the LSP base protocol, and a strictly sequential
// server-side connection loop.
package jsonrpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// Handler processes an incoming JSON-RPC request or notification.
type Handler func(ctx context.Context, method string, params RawMessage) (result interface{}, err error)

// NotificationHandler processes an incoming JSON-RPC notification.
type NotificationHandler func(ctx context.Context, method string, params RawMessage)

// ErrNoResponse, returned (possibly wrapped) by a Handler, tells the
// connection to send nothing back for that request.
var ErrNoResponse = errors.New("no response")

// Conn is the server side of a JSON-RPC 2.0 connection. Messages are
// handled one at a time: read a frame, dispatch it, write any response,
// flush, repeat.
type Conn struct {
	codec   *Codec
	handler Handler
	notif   NotificationHandler
	logger  *slog.Logger

	replyParseErrors func() bool

	closeOnce sync.Once
	done      chan struct{}
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithConnLogger sets the logger used for dropped messages.
func WithConnLogger(l *slog.Logger) ConnOption {
	return func(c *Conn) { c.logger = l }
}

// WithParseErrorReplies makes the connection answer undecodable messages
// that carry a recognizable id with a parse error, whenever fn returns true.
func WithParseErrorReplies(fn func() bool) ConnOption {
	return func(c *Conn) { c.replyParseErrors = fn }
}

// NewConn creates a new JSON-RPC connection using the given codec, request
// handler, and notification handler.
func NewConn(codec *Codec, handler Handler, notif NotificationHandler, opts ...ConnOption) *Conn {
	c := &Conn{
		codec:   codec,
		handler: handler,
		notif:   notif,
		logger:  slog.Default(),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run reads messages from the connection until the peer closes the stream,
// Close is called, or the transport fails. Only transport failures are
// returned; anything the peer sends is logged and survived.
func (c *Conn) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		default:
		}

		data, err := c.codec.Read()
		if err != nil {
			var fe *FrameError
			switch {
			case errors.As(err, &fe):
				c.logger.Warn("dropping malformed frame", "kind", fe.Kind.String(), "error", err)
				continue
			case errors.Is(err, io.EOF):
				return nil
			default:
				return err
			}
		}

		if err := c.handle(ctx, data); err != nil {
			return err
		}
		if err := c.codec.Flush(); err != nil {
			return err
		}
	}
}

func (c *Conn) handle(ctx context.Context, data []byte) error {
	msg, err := DecodeMessage(data)
	if err != nil {
		return c.handleUndecodable(data, err)
	}

	switch m := msg.(type) {
	case *Request:
		return c.handleRequest(ctx, m)
	case *Notification:
		c.handleNotification(ctx, m)
	case *Response:
		c.logger.Warn("dropping unexpected response", "id", m.ID.String())
	}
	return nil
}

func (c *Conn) handleUndecodable(data []byte, err error) error {
	method, id, hasID := Peek(data)
	c.logger.Warn("dropping undecodable message", "method", method, "error", err)
	if !hasID || c.replyParseErrors == nil || !c.replyParseErrors() {
		return nil
	}
	code := CodeParseError
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		code = rpcErr.Code
	}
	return c.write(NewErrorResponse(id, code, err.Error()))
}

func (c *Conn) handleRequest(ctx context.Context, req *Request) error {
	result, err := c.handler(ctx, req.Method, req.Params)
	if errors.Is(err, ErrNoResponse) {
		return nil
	}
	return c.write(NewResponse(req.ID, result, err))
}

func (c *Conn) handleNotification(ctx context.Context, notif *Notification) {
	if c.notif != nil {
		c.notif(ctx, notif.Method, notif.Params)
	} else if c.handler != nil {
		_, _ = c.handler(ctx, notif.Method, notif.Params)
	}
}

// write sends resp. A response that cannot be serialized is replaced by an
// internal error for the same id; only transport failures are returned.
func (c *Conn) write(resp *Response) error {
	err := c.codec.Write(resp)
	if err == nil || !errors.Is(err, ErrEncode) {
		return err
	}
	c.logger.Error("failed to encode response", "id", resp.ID.String(), "error", err)
	fallback := NewErrorResponse(resp.ID, CodeInternalError, "internal error: response could not be encoded")
	if err := c.codec.Write(fallback); err != nil && !errors.Is(err, ErrEncode) {
		return err
	}
	return nil
}

// Close makes Run return after the message currently being handled.
func (c *Conn) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed once Close has been called.
func (c *Conn) Done() <-chan struct{} { return c.done }
