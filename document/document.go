// Package document provides the in-memory set of open text documents for
// one session. Every change replaces the full text.
package document

import "github.com/gossip-lsp/toylsp/protocol"

// Document is a snapshot of one open text document.
type Document struct {
	URI        protocol.DocumentURI
	LanguageID string
	Version    int32
	Text       string
}

// New creates a Document from an LSP TextDocumentItem.
func New(item protocol.TextDocumentItem) Document {
	return Document{
		URI:        item.URI,
		LanguageID: item.LanguageID,
		Version:    item.Version,
		Text:       item.Text,
	}
}
