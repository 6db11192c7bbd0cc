package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gossip-lsp/toylsp/protocol"
)

func item(uri, text string) protocol.TextDocumentItem {
	return protocol.TextDocumentItem{URI: protocol.DocumentURI(uri), LanguageID: "plaintext", Version: 1, Text: text}
}

func TestStoreOpenReplaces(t *testing.T) {
	s := NewStore()
	s.Open(item("file:///a.txt", "hello"))
	s.Open(item("file:///a.txt", "bye"))

	text, ok := s.Text("file:///a.txt")
	require.True(t, ok)
	assert.Equal(t, "bye", text)
	assert.Equal(t, 1, s.Len())
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore()
	s.Open(item("file:///a.txt", "hello"))
	s.Update("file:///a.txt", 2, "first")
	s.Update("file:///a.txt", 3, "second")

	doc, ok := s.Get("file:///a.txt")
	require.True(t, ok)
	assert.Equal(t, "second", doc.Text)
	assert.Equal(t, int32(3), doc.Version)
	assert.Equal(t, "plaintext", doc.LanguageID)
}

func TestStoreUpdateInsertsUnknown(t *testing.T) {
	s := NewStore()
	s.Update("file:///new.txt", 1, "text")

	text, ok := s.Text("file:///new.txt")
	require.True(t, ok)
	assert.Equal(t, "text", text)
}

func TestStoreURIsAreOpaque(t *testing.T) {
	s := NewStore()
	s.Open(item("file:///A.txt", "upper"))
	s.Open(item("file:///a.txt", "lower"))
	s.Open(item("file:///a.txt/", "slash"))

	assert.Equal(t, []protocol.DocumentURI{"file:///A.txt", "file:///a.txt", "file:///a.txt/"}, s.URIs())

	_, ok := s.Get("file:///b.txt")
	assert.False(t, ok)
}
