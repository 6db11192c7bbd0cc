// Package toylsp is a small Language Server Protocol server. It frames
// JSON-RPC messages with Content-Length headers, classifies each one as a
// request or notification, and dispatches it to a typed handler that reads
// or updates the session's open documents.
//
// A server starts with working defaults for initialize, hover, didOpen and
// didChange, any of which can be replaced:
//
//	s := toylsp.NewServer()
//	s.OnHover(myHoverHandler)
//	toylsp.Serve(s, toylsp.WithStdio())
//
// Messages are handled strictly one at a time. Anything malformed the peer
// sends is logged and dropped; only a failing transport ends a session
// with an error.
package toylsp
