// Package protocol contains the LSP types understood by toylsp.
package protocol

import "encoding/json"

// DocumentURI represents the URI of a document. URIs are opaque and compared
// byte for byte.
type DocumentURI string

// Position in a text document expressed as zero-based line and character offset.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// TextDocumentIdentifier identifies a text document.
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// VersionedTextDocumentIdentifier identifies a versioned text document.
type VersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier
	Version int32 `json:"version"`
}

// TextDocumentItem describes a text document with content.
type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int32       `json:"version"`
	Text       string      `json:"text"`
}

// TextDocumentPositionParams combines a document identifier and a position.
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// TextDocumentContentChangeEvent carries the full new text of a document.
type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

// --- Lifecycle types ---

// ClientInfo identifies the client.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeParams is sent as the first request from client to server.
type InitializeParams struct {
	ProcessID             *int32          `json:"processId,omitempty"`
	ClientInfo            *ClientInfo     `json:"clientInfo,omitempty"`
	RootURI               *DocumentURI    `json:"rootUri,omitempty"`
	Capabilities          json.RawMessage `json:"capabilities,omitempty"`
	InitializationOptions json.RawMessage `json:"initializationOptions,omitempty"`
	Trace                 string          `json:"trace,omitempty"`
}

// TextDocumentSyncKind defines how the client syncs document changes.
type TextDocumentSyncKind int

const (
	SyncNone TextDocumentSyncKind = 0
	SyncFull TextDocumentSyncKind = 1
)

// ServerCapabilities lists what the server supports.
type ServerCapabilities struct {
	TextDocumentSync TextDocumentSyncKind `json:"textDocumentSync"`
	HoverProvider    bool                 `json:"hoverProvider"`
}

// ServerInfo describes the server.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is the server's response to initialize.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// InitializedParams is sent after the client receives the InitializeResult.
type InitializedParams struct{}

// --- Text document sync ---

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// --- Language features ---

type HoverParams struct {
	TextDocumentPositionParams
}

// Hover is the result of a hover request. Contents is plain text; an empty
// string means there is nothing to show.
type Hover struct {
	Contents string `json:"contents"`
}
