// Package transport provides pluggable byte streams for the session loop:
// stdio, in-memory pipes, TCP, Unix domain sockets and WebSocket.
package transport

import "io"

// Transport provides a bidirectional byte stream for JSON-RPC communication.
// Each implementation wraps a specific communication mechanism (stdio, TCP, etc.)
// and exposes it as a simple reader/writer pair.
type Transport interface {
	io.ReadWriteCloser
}
