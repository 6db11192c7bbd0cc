package toylsp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/gossip-lsp/toylsp/config"
	"github.com/gossip-lsp/toylsp/jsonrpc"
	mw "github.com/gossip-lsp/toylsp/middleware"
	"github.com/gossip-lsp/toylsp/protocol"
)

// Server is the central type of toylsp. It holds the method table and the
// settings shared by every session it serves. Document state is not kept
// here: each call to Serve gets a fresh document store.
type Server struct {
	logger   *slog.Logger
	settings *config.Store[config.Settings]

	// middleware chain, applied inside the built-in Recovery, Logging and
	// Telemetry middleware
	middlewares []mw.Middleware

	mu     sync.RWMutex
	routes map[string]route
}

// route is one entry of the method table.
type route struct {
	notification bool
	call         func(ctx *Context, params jsonrpc.RawMessage) (interface{}, error)
}

// NewServer creates a server with the default lifecycle, document sync and
// hover handlers registered.
func NewServer(opts ...Option) *Server {
	defaults := config.Defaults()
	s := &Server{
		logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
		settings: config.NewStore(&defaults),
		routes:   make(map[string]route),
	}

	s.OnInitialize(defaultInitialize)
	s.OnInitialized(defaultInitialized)
	s.OnShutdown(defaultShutdown)
	s.OnDidOpen(defaultDidOpen)
	s.OnDidChange(defaultDidChange)
	s.OnHover(defaultHover)

	for _, o := range opts {
		o(s)
	}
	return s
}

// --- Handler registration (functional pattern) ---

func (s *Server) OnInitialize(h InitializeHandler) {
	handleRequest[protocol.InitializeParams, *protocol.InitializeResult](s, protocol.MethodInitialize, h)
}

func (s *Server) OnHover(h HoverHandler) {
	handleRequest[protocol.HoverParams, *protocol.Hover](s, protocol.MethodHover, h)
}

// OnShutdown registers a hook run when the client requests shutdown. The
// session still answers the request with null and waits for exit.
func (s *Server) OnShutdown(h ShutdownHandler) {
	s.register(protocol.MethodShutdown, route{call: func(ctx *Context, _ jsonrpc.RawMessage) (interface{}, error) {
		ctx.session.shutdown = true
		return nil, h(ctx)
	}})
}

// Notification handlers
func (s *Server) OnInitialized(h InitializedHandler) {
	handleNotification[protocol.InitializedParams](s, protocol.MethodInitialized, true, h)
}

func (s *Server) OnDidOpen(h DidOpenHandler) {
	handleNotification[protocol.DidOpenTextDocumentParams](s, protocol.MethodDidOpen, false, h)
}

func (s *Server) OnDidChange(h DidChangeHandler) {
	handleNotification[protocol.DidChangeTextDocumentParams](s, protocol.MethodDidChange, false, h)
}

// HandleRequest registers a raw handler for a custom request method.
func (s *Server) HandleRequest(method string, h RawHandler) {
	s.register(method, route{call: func(ctx *Context, params jsonrpc.RawMessage) (interface{}, error) {
		return h(ctx, params)
	}})
}

// HandleNotification registers a raw handler for a custom notification method.
func (s *Server) HandleNotification(method string, h RawNotificationHandler) {
	s.register(method, route{notification: true, call: func(ctx *Context, params jsonrpc.RawMessage) (interface{}, error) {
		return nil, h(ctx, params)
	}})
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger { return s.logger }

// Settings returns the server's live settings.
func (s *Server) Settings() *config.Store[config.Settings] { return s.settings }

func (s *Server) register(method string, r route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method] = r
}

func (s *Server) getRoute(method string) (route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routes[method]
	return r, ok
}

func (s *Server) replyErrors() bool {
	return s.settings.Get().ReplyErrors
}

// handleRequest registers h for method, decoding params into P first.
func handleRequest[P, R any](s *Server, method string, h func(*Context, *P) (R, error)) {
	s.register(method, route{call: func(ctx *Context, raw jsonrpc.RawMessage) (interface{}, error) {
		p, err := decodeParams[P](method, raw, false)
		if err != nil {
			return nil, err
		}
		return h(ctx, p)
	}})
}

// handleNotification registers h for method, decoding params into P first.
// When optional is set, absent or null params decode as the zero P.
func handleNotification[P any](s *Server, method string, optional bool, h func(*Context, *P) error) {
	s.register(method, route{notification: true, call: func(ctx *Context, raw jsonrpc.RawMessage) (interface{}, error) {
		p, err := decodeParams[P](method, raw, optional)
		if err != nil {
			return nil, err
		}
		return nil, h(ctx, p)
	}})
}

type requiresFields interface {
	RequiredFields() []string
}

func decodeParams[P any](method string, raw jsonrpc.RawMessage, optional bool) (*P, error) {
	p := new(P)
	if len(raw) == 0 || string(raw) == "null" {
		if optional {
			return p, nil
		}
		return nil, &ParamsError{Method: method, Err: errMissingParams}
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, &ParamsError{Method: method, Err: err}
	}
	if r, ok := any(p).(requiresFields); ok {
		for _, path := range r.RequiredFields() {
			if v := gjson.GetBytes(raw, path); !v.Exists() || v.Type == gjson.Null {
				return nil, &ParamsError{Method: method, Err: fmt.Errorf("%s is required", path)}
			}
		}
	}
	return p, nil
}

// --- Default handlers ---

func defaultInitialize(ctx *Context, p *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	info := ctx.ServerInfo()
	client := ""
	if p.ClientInfo != nil {
		client = p.ClientInfo.Name
	}
	ctx.Logger().Info("server initialized",
		"name", info.Name,
		"version", info.Version,
		"client", client,
	)
	return &protocol.InitializeResult{
		Capabilities: ctx.Server().buildCapabilities(),
		ServerInfo:   &info,
	}, nil
}

func defaultInitialized(ctx *Context, _ *protocol.InitializedParams) error {
	ctx.Logger().Info("client initialized")
	return nil
}

func defaultShutdown(ctx *Context) error {
	ctx.Logger().Info("server shutting down", "documents", ctx.Documents.Len())
	return nil
}

func defaultDidOpen(ctx *Context, p *protocol.DidOpenTextDocumentParams) error {
	ctx.Documents.Open(p.TextDocument)
	ctx.Logger().Debug("document opened", "uri", p.TextDocument.URI, "bytes", len(p.TextDocument.Text))
	return nil
}

// defaultDidChange applies every change as a full replacement, in order, so
// the last one wins.
func defaultDidChange(ctx *Context, p *protocol.DidChangeTextDocumentParams) error {
	for _, change := range p.ContentChanges {
		ctx.Documents.Update(p.TextDocument.URI, p.TextDocument.Version, change.Text)
	}
	ctx.Logger().Debug("document changed", "uri", p.TextDocument.URI, "changes", len(p.ContentChanges))
	return nil
}

// defaultHover reports the uri and the byte length of its text. A document
// that was never opened yields empty contents.
func defaultHover(ctx *Context, p *protocol.HoverParams) (*protocol.Hover, error) {
	uri := p.TextDocument.URI
	text, ok := ctx.Documents.Text(uri)
	if !ok {
		ctx.Logger().Warn("hover on unknown document", "uri", uri)
		return &protocol.Hover{}, nil
	}
	return &protocol.Hover{Contents: fmt.Sprintf("%s: %d bytes", uri, len(text))}, nil
}
