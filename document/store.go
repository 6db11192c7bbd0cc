package document

import (
	"sort"
	"sync"

	"github.com/gossip-lsp/toylsp/protocol"
)

// Store maps document URIs to their current content. It is created once per
// session; entries are added or replaced on open and change and live until
// the session ends.
type Store struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentURI]Document
}

// NewStore creates a new empty document store.
func NewStore() *Store {
	return &Store{
		docs: make(map[protocol.DocumentURI]Document),
	}
}

// Open inserts the document, replacing any existing entry for its URI.
func (s *Store) Open(item protocol.TextDocumentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[item.URI] = New(item)
}

// Update replaces the text of uri, inserting it if it was never opened.
func (s *Store) Update(uri protocol.DocumentURI, version int32, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[uri]
	doc.URI = uri
	doc.Version = version
	doc.Text = text
	s.docs[uri] = doc
}

// Get returns the document for the given URI.
func (s *Store) Get(uri protocol.DocumentURI) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	return doc, ok
}

// Text returns the current text of uri.
func (s *Store) Text(uri protocol.DocumentURI) (string, bool) {
	doc, ok := s.Get(uri)
	return doc.Text, ok
}

// Len returns the number of open documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// URIs returns all open document URIs in sorted order.
func (s *Store) URIs() []protocol.DocumentURI {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]protocol.DocumentURI, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	sort.Slice(uris, func(i, j int) bool { return uris[i] < uris[j] })
	return uris
}
