package toylsp

import (
	"encoding/json"

	"github.com/gossip-lsp/toylsp/protocol"
)

// RawHandler processes a JSON-RPC request with raw params. Use HandleRequest
// to register these for custom methods.
type RawHandler func(ctx *Context, params json.RawMessage) (interface{}, error)

// RawNotificationHandler processes a JSON-RPC notification with raw params.
// Use HandleNotification to register these for custom notifications.
type RawNotificationHandler func(ctx *Context, params json.RawMessage) error

// Handler function types for each LSP method.
// Request handlers return a result and an error.
// Notification handlers return only an error.

type InitializeHandler func(ctx *Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error)
type InitializedHandler func(ctx *Context, params *protocol.InitializedParams) error
type ShutdownHandler func(ctx *Context) error

// Text document sync
type DidOpenHandler func(ctx *Context, params *protocol.DidOpenTextDocumentParams) error
type DidChangeHandler func(ctx *Context, params *protocol.DidChangeTextDocumentParams) error

// Language features
type HoverHandler func(ctx *Context, params *protocol.HoverParams) (*protocol.Hover, error)
