package jsonrpc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// DefaultMaxContentLength bounds the body size a peer may declare.
const DefaultMaxContentLength = 64 << 20

const readChunkSize = 64 * 1024

// Codec reads and writes Content-Length framed JSON-RPC messages
// as defined by the LSP base protocol.
//
// After a malformed header the codec restarts at the first "Content-Length: "
// prefix found inside that header, if any. Otherwise it drops everything up
// to and including the header's "\r\n\r\n" and discards input until the
// next prefix is seen. A prefix split across reads is kept. A header longer
// than MaxHeaderLength is abandoned the same way.
type Codec struct {
	reader  io.Reader
	chunk   []byte
	buf     []byte
	resync  bool
	readErr error
	limit   int

	writer *bufio.Writer
	wmu    sync.Mutex
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithMaxContentLength sets the largest body accepted by Read. Zero or a
// negative value disables the check.
func WithMaxContentLength(n int) CodecOption {
	return func(c *Codec) { c.limit = n }
}

// NewCodec creates a new Content-Length framed codec over the given streams.
func NewCodec(r io.Reader, w io.Writer, opts ...CodecOption) *Codec {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	c := &Codec{
		reader: r,
		chunk:  make([]byte, readChunkSize),
		writer: bw,
		limit:  DefaultMaxContentLength,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Read returns the body of the next complete frame.
//
// A *FrameError reports a frame attempt that was abandoned; Read may be
// called again. io.EOF is returned once the stream ends between frames.
// Any other error comes from the underlying reader and is fatal.
func (c *Codec) Read() ([]byte, error) {
	for {
		if c.resync {
			c.resync = !c.skipToPrefix()
		}
		if !c.resync {
			n, body, err := splitFrame(c.buf, frameLimits{body: c.limit, header: MaxHeaderLength})
			if err != nil {
				c.abandonHeader()
				return nil, err
			}
			if n > 0 {
				out := make([]byte, len(body))
				copy(out, body)
				c.buf = append(c.buf[:0], c.buf[n:]...)
				return out, nil
			}
		}

		if c.readErr != nil {
			return nil, c.finish()
		}
		c.fill()
	}
}

// Buffered returns the number of received bytes not yet returned by Read.
func (c *Codec) Buffered() int { return len(c.buf) }

func (c *Codec) fill() {
	n, err := c.reader.Read(c.chunk)
	c.buf = append(c.buf, c.chunk[:n]...)
	if err != nil {
		c.readErr = err
	}
}

// abandonHeader drops the header splitFrame rejected. A prefix after its
// first byte is where the next frame starts, as when a short Content-Length
// left stray body bytes in front of the following header.
func (c *Codec) abandonHeader() {
	end := bytes.Index(c.buf, delimiter)
	span := end
	if span < 0 {
		span = len(c.buf)
	}
	if span > 1 {
		if i := bytes.Index(c.buf[1:span], []byte(HeaderPrefix)); i >= 0 {
			c.buf = append(c.buf[:0], c.buf[1+i:]...)
			return
		}
	}

	if end >= 0 {
		c.buf = append(c.buf[:0], c.buf[end+len(delimiter):]...)
	} else {
		c.keepPrefixTail()
	}
	c.resync = true
}

// skipToPrefix discards bytes before the next header prefix and reports
// whether one was found.
func (c *Codec) skipToPrefix() bool {
	if i := bytes.Index(c.buf, []byte(HeaderPrefix)); i >= 0 {
		c.buf = append(c.buf[:0], c.buf[i:]...)
		return true
	}
	c.keepPrefixTail()
	return false
}

// keepPrefixTail drops all but the bytes that could begin a prefix whose
// remainder has not arrived yet.
func (c *Codec) keepPrefixTail() {
	if keep := len(HeaderPrefix) - 1; len(c.buf) > keep {
		c.buf = append(c.buf[:0], c.buf[len(c.buf)-keep:]...)
	}
}

// finish converts the terminal read error into Read's result. A partial
// frame left at EOF is reported once as a truncation.
func (c *Codec) finish() error {
	if !errors.Is(c.readErr, io.EOF) {
		return fmt.Errorf("reading message: %w", c.readErr)
	}
	if c.resync || len(c.buf) == 0 {
		c.buf = c.buf[:0]
		return io.EOF
	}

	defer func() { c.buf = c.buf[:0] }()
	headerEnd := bytes.Index(c.buf, delimiter)
	if headerEnd < 0 {
		return &FrameError{Kind: MissingDelimiter}
	}
	n, err := parseHeader(c.buf[:headerEnd])
	if err != nil {
		return err
	}
	return &FrameError{
		Kind:      IncompleteBody,
		Expected:  n,
		Available: len(c.buf) - headerEnd - len(delimiter),
	}
}

// EncodeMessage serializes v to JSON and frames it for the wire.
func EncodeMessage(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return AppendFrame(make([]byte, 0, len(data)+32), data), nil
}

// Write encodes v and buffers it for sending. Call Flush to push it to the
// underlying writer. Errors wrapping ErrEncode leave the stream untouched.
func (c *Codec) Write(v interface{}) error {
	data, err := EncodeMessage(v)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

// Flush writes any buffered messages to the underlying writer.
func (c *Codec) Flush() error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("flushing messages: %w", err)
	}
	return nil
}
