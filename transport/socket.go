package transport

import (
	"errors"
	"io/fs"
	"net"
	"os"

	"go.uber.org/multierr"
)

// ListenSocket starts a Unix domain socket listener and returns the first
// connection as a transport. A stale socket file at path is removed first,
// and the socket file is removed again when the transport is closed.
func ListenSocket(path string) (Transport, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	return &socketTransport{conn: conn, path: path}, nil
}

type socketTransport struct {
	conn net.Conn
	path string
}

func (s *socketTransport) Read(p []byte) (int, error)  { return s.conn.Read(p) }
func (s *socketTransport) Write(p []byte) (int, error) { return s.conn.Write(p) }
func (s *socketTransport) Close() error {
	err := s.conn.Close()
	if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		err = multierr.Append(err, rmErr)
	}
	return err
}
