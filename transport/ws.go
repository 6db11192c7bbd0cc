package transport

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/net/websocket"
)

// ListenWebSocket starts an HTTP server with WebSocket upgrade on the given
// address and returns the first WebSocket connection as a transport.
// Used by Monaco, Theia, and other web-based editors.
func ListenWebSocket(addr string) (Transport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return AcceptWebSocket(ln)
}

// AcceptWebSocket serves WebSocket upgrades on ln until the first
// connection arrives and returns it. Later connections are refused. The
// HTTP server and ln are shut down when the transport is closed.
func AcceptWebSocket(ln net.Listener) (Transport, error) {
	connCh := make(chan *wsTransport, 1)
	var once sync.Once

	srv := &http.Server{}
	srv.Handler = websocket.Server{Handler: func(ws *websocket.Conn) {
		accepted := false
		t := &wsTransport{conn: ws, srv: srv, closed: make(chan struct{})}
		once.Do(func() {
			accepted = true
			connCh <- t
		})
		if !accepted {
			return
		}
		// The connection lives as long as the handler does.
		<-t.closed
	}}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("websocket server error", "error", err)
			errCh <- err
		}
	}()

	select {
	case t := <-connCh:
		return t, nil
	case err := <-errCh:
		return nil, err
	}
}

// wsTransport adapts message-oriented WebSocket frames to a byte stream.
// Each Write is sent as one binary message.
type wsTransport struct {
	conn *websocket.Conn
	srv  *http.Server

	pending []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func (w *wsTransport) Read(p []byte) (int, error) {
	for len(w.pending) == 0 {
		var msg []byte
		if err := websocket.Message.Receive(w.conn, &msg); err != nil {
			return 0, err
		}
		w.pending = msg
	}
	n := copy(p, w.pending)
	w.pending = w.pending[n:]
	return n, nil
}

func (w *wsTransport) Write(p []byte) (int, error) {
	if err := websocket.Message.Send(w.conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsTransport) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		err = multierr.Combine(w.conn.Close(), w.srv.Close())
	})
	return err
}
