package toylsp

import "github.com/gossip-lsp/toylsp/protocol"

// buildCapabilities inspects which handlers are registered and returns
// a ServerCapabilities struct that accurately reflects what the server supports.
func (s *Server) buildCapabilities() protocol.ServerCapabilities {
	caps := protocol.ServerCapabilities{TextDocumentSync: protocol.SyncNone}

	_, open := s.getRoute(protocol.MethodDidOpen)
	_, change := s.getRoute(protocol.MethodDidChange)
	if open && change {
		caps.TextDocumentSync = protocol.SyncFull
	}
	if _, ok := s.getRoute(protocol.MethodHover); ok {
		caps.HoverProvider = true
	}
	return caps
}
