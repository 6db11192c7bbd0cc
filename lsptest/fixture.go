package lsptest

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gossip-lsp/toylsp/protocol"
)

// FileURI creates a file:// URI from a path.
func FileURI(path string) protocol.DocumentURI {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return protocol.DocumentURI(fmt.Sprintf("file://%s", path))
}

// Pos creates a protocol.Position from line and character (0-indexed).
func Pos(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

// LogBuffer collects log output from a server under test. It is safe for
// concurrent use.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Logger returns a debug-level text logger writing into a new LogBuffer.
func Logger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}
