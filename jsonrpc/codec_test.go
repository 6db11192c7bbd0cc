package jsonrpc

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMessage struct {
	Testing bool `json:"testing"`
}

func TestEncodeMessage(t *testing.T) {
	got, err := EncodeMessage(&testMessage{Testing: true})
	require.NoError(t, err)
	assert.Equal(t, "Content-Length: 16\r\n\r\n{\"testing\":true}", string(got))
}

func TestEncodeMessageFailure(t *testing.T) {
	_, err := EncodeMessage(map[string]interface{}{"ch": make(chan int)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestCodecReadMultiByteBody(t *testing.T) {
	text := "grüße, 世界 😜"
	var in bytes.Buffer
	c := NewCodec(&in, io.Discard)

	frame, err := EncodeMessage(map[string]string{"text": text})
	require.NoError(t, err)
	in.Write(frame)

	body, err := c.Read()
	require.NoError(t, err)

	msg := string(body)
	assert.True(t, strings.HasPrefix(string(frame), "Content-Length: "+strconv.Itoa(len(msg))+"\r\n\r\n"))
	assert.NotEqual(t, len([]rune(msg)), len(msg))
	assert.Contains(t, msg, text)
}

func TestCodecReadTrickle(t *testing.T) {
	stream := "Content-Length: 2\r\n\r\n{}" + "Content-Length: 14\r\n\r\n{\"id\":1,\"a\":2}"
	c := NewCodec(iotest.OneByteReader(strings.NewReader(stream)), io.Discard)

	body, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))

	body, err = c.Read()
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"a":2}`, string(body))

	_, err = c.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCodecResyncAfterMalformedHeader(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		kind   FrameErrorKind
	}{
		{"missing prefix", "Length: 5\r\n\r\nhello", MissingPrefix},
		{"bad length", "Content-Length: x\r\n\r\ngarbage", InvalidLengthField},
		{"bad utf-8", "\xff\xfe\r\n\r\n", HeaderNotUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := "Content-Length: 11\r\n\r\n{\"id\":\"ok\"}"
			for _, r := range []io.Reader{
				strings.NewReader(tt.stream + good),
				iotest.OneByteReader(strings.NewReader(tt.stream + good)),
			} {
				c := NewCodec(r, io.Discard)

				_, err := c.Read()
				var fe *FrameError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, tt.kind, fe.Kind)

				body, err := c.Read()
				require.NoError(t, err)
				assert.Equal(t, `{"id":"ok"}`, string(body))

				_, err = c.Read()
				assert.ErrorIs(t, err, io.EOF)
			}
		})
	}
}

func TestCodecRestartsAtPrefixInsideBadHeader(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		first  string
	}{
		{
			// A length counted in characters rather than bytes leaves one byte behind.
			name:   "leftover body byte",
			stream: "Content-Length: 1\r\n\r\n{}" + "Content-Length: 2\r\n\r\n[]" + "Content-Length: 4\r\n\r\nnull",
			first:  "{",
		},
		{
			name:   "stray newline",
			stream: "\nContent-Length: 2\r\n\r\n[]" + "Content-Length: 4\r\n\r\nnull",
		},
		{
			name:   "extra header first",
			stream: "Content-Type: text/plain\r\nContent-Length: 2\r\n\r\n[]" + "Content-Length: 4\r\n\r\nnull",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, r := range []io.Reader{
				strings.NewReader(tt.stream),
				iotest.OneByteReader(strings.NewReader(tt.stream)),
			} {
				c := NewCodec(r, io.Discard)

				if tt.first != "" {
					body, err := c.Read()
					require.NoError(t, err)
					assert.Equal(t, tt.first, string(body))
				}

				_, err := c.Read()
				var fe *FrameError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, MissingPrefix, fe.Kind)

				for _, want := range []string{"[]", "null"} {
					body, err := c.Read()
					require.NoError(t, err)
					assert.Equal(t, want, string(body))
				}
				_, err = c.Read()
				assert.ErrorIs(t, err, io.EOF)
			}
		})
	}
}

type repeatReader byte

func (r repeatReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}
	return len(p), nil
}

func TestCodecBoundsUnterminatedHeader(t *testing.T) {
	tests := []struct {
		name string
		junk io.Reader
	}{
		{"no prefix", io.LimitReader(repeatReader('x'), 4<<20)},
		{"prefix then junk", io.MultiReader(strings.NewReader(HeaderPrefix), io.LimitReader(repeatReader('9'), 4<<20))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := strings.NewReader("Content-Length: 2\r\n\r\n{}")
			c := NewCodec(io.MultiReader(tt.junk, good), io.Discard)

			_, err := c.Read()
			var fe *FrameError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, HeaderTooLarge, fe.Kind)
			assert.LessOrEqual(t, c.Buffered(), MaxHeaderLength+readChunkSize)

			body, err := c.Read()
			require.NoError(t, err)
			assert.Equal(t, "{}", string(body))
			assert.Zero(t, c.Buffered())
		})
	}
}

func TestCodecFrameTooLarge(t *testing.T) {
	stream := "Content-Length: 100\r\n\r\n" + strings.Repeat("x", 100) + "Content-Length: 2\r\n\r\n{}"
	c := NewCodec(strings.NewReader(stream), io.Discard, WithMaxContentLength(10))

	_, err := c.Read()
	var fe *FrameError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FrameTooLarge, fe.Kind)

	body, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))
}

func TestCodecTruncatedAtEOF(t *testing.T) {
	tests := []struct {
		name      string
		stream    string
		kind      FrameErrorKind
		expected  int
		available int
	}{
		{"header only", "Content-Length: 5", MissingDelimiter, 0, 0},
		{"partial body", "Content-Length: 5\r\n\r\nhel", IncompleteBody, 5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCodec(strings.NewReader(tt.stream), io.Discard)

			_, err := c.Read()
			var fe *FrameError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.kind, fe.Kind)
			assert.Equal(t, tt.expected, fe.Expected)
			assert.Equal(t, tt.available, fe.Available)

			_, err = c.Read()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestCodecReadTransportError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCodec(iotest.ErrReader(boom), io.Discard)

	_, err := c.Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsFrameError(err))
}

func TestCodecWriteBuffersUntilFlush(t *testing.T) {
	var out bytes.Buffer
	c := NewCodec(strings.NewReader(""), &out)

	require.NoError(t, c.Write(&testMessage{Testing: true}))
	assert.Zero(t, out.Len())

	require.NoError(t, c.Flush())
	assert.Equal(t, "Content-Length: 16\r\n\r\n{\"testing\":true}", out.String())
}

func TestCodecRoundTrip(t *testing.T) {
	msgs := []Message{
		&Request{JSONRPC: Version, ID: IntID(1), Method: "initialize", Params: RawMessage(`{"clientInfo":{"name":"x"}}`)},
		&Request{JSONRPC: Version, ID: StringID("abc"), Method: "textDocument/hover", Params: RawMessage(`{"uri":"file:///ü.txt"}`)},
		&Notification{JSONRPC: Version, Method: "initialized", Params: RawMessage(`{}`)},
		&Notification{JSONRPC: Version, Method: "exit"},
		&Response{JSONRPC: Version, ID: IntID(7), Result: RawMessage(`{"contents":"日本"}`)},
		&Response{JSONRPC: Version, ID: IntID(8), Error: &Error{Code: CodeMethodNotFound, Message: "nope"}},
	}

	pr, pw := io.Pipe()
	writer := NewCodec(strings.NewReader(""), pw)
	reader := NewCodec(pr, io.Discard)

	go func() {
		for _, m := range msgs {
			_ = writer.Write(m)
		}
		_ = writer.Flush()
		pw.Close()
	}()

	for _, want := range msgs {
		body, err := reader.Read()
		require.NoError(t, err)
		got, err := DecodeMessage(body)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := reader.Read()
	assert.ErrorIs(t, err, io.EOF)
}
