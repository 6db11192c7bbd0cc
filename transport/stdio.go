package transport

import (
	"io"
	"os"

	"go.uber.org/multierr"
)

type stdioTransport struct {
	in  io.ReadCloser
	out io.WriteCloser
}

// Stdio returns a Transport backed by os.Stdin and os.Stdout.
func Stdio() Transport {
	return NewStdio(os.Stdin, os.Stdout)
}

// NewStdio returns a Transport reading from in and writing to out.
func NewStdio(in io.ReadCloser, out io.WriteCloser) Transport {
	return &stdioTransport{in: in, out: out}
}

func (s *stdioTransport) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *stdioTransport) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s *stdioTransport) Close() error {
	return multierr.Combine(s.in.Close(), s.out.Close())
}
