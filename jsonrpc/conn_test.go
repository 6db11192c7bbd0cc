package jsonrpc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frames(bodies ...string) string {
	var b []byte
	for _, body := range bodies {
		b = AppendFrame(b, []byte(body))
	}
	return string(b)
}

func readResponses(t *testing.T, out []byte) []*Response {
	t.Helper()
	c := NewCodec(bytes.NewReader(out), io.Discard)
	var resps []*Response
	for {
		body, err := c.Read()
		if errors.Is(err, io.EOF) {
			return resps
		}
		require.NoError(t, err)
		msg, err := DecodeMessage(body)
		require.NoError(t, err)
		resp, ok := msg.(*Response)
		require.True(t, ok, "expected a response, got %T", msg)
		resps = append(resps, resp)
	}
}

type recorder struct {
	requests      []string
	notifications []string
}

func (r *recorder) handler(_ context.Context, method string, params RawMessage) (interface{}, error) {
	r.requests = append(r.requests, method)
	switch method {
	case "drop":
		return nil, ErrNoResponse
	case "fail":
		return nil, &Error{Code: CodeInvalidParams, Message: "bad params"}
	case "unencodable":
		return nil, &Error{Code: CodeInternalError, Message: "x", Data: make(chan int)}
	}
	return map[string]string{"method": method}, nil
}

func (r *recorder) notif(_ context.Context, method string, _ RawMessage) {
	r.notifications = append(r.notifications, method)
}

func runConn(t *testing.T, input string, opts ...ConnOption) (*recorder, []*Response, string) {
	t.Helper()
	var out, logs bytes.Buffer
	rec := &recorder{}
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]ConnOption{WithConnLogger(logger)}, opts...)

	conn := NewConn(NewCodec(strings.NewReader(input), &out), rec.handler, rec.notif, opts...)
	require.NoError(t, conn.Run(context.Background()))
	return rec, readResponses(t, out.Bytes()), logs.String()
}

func TestConnRequestsAndNotifications(t *testing.T) {
	rec, resps, _ := runConn(t, frames(
		`{"jsonrpc":"2.0","id":1,"method":"a"}`,
		`{"jsonrpc":"2.0","method":"n1"}`,
		`{"jsonrpc":"2.0","id":"two","method":"b"}`,
	))

	assert.Equal(t, []string{"a", "b"}, rec.requests)
	assert.Equal(t, []string{"n1"}, rec.notifications)
	require.Len(t, resps, 2)
	assert.Equal(t, IntID(1), resps[0].ID)
	assert.JSONEq(t, `{"method":"a"}`, string(resps[0].Result))
	assert.Equal(t, StringID("two"), resps[1].ID)
}

func TestConnDropAndErrorResponses(t *testing.T) {
	_, resps, _ := runConn(t, frames(
		`{"jsonrpc":"2.0","id":1,"method":"drop"}`,
		`{"jsonrpc":"2.0","id":2,"method":"fail"}`,
		`{"jsonrpc":"2.0","id":3,"method":"unencodable"}`,
	))

	require.Len(t, resps, 2)
	assert.Equal(t, IntID(2), resps[0].ID)
	require.NotNil(t, resps[0].Error)
	assert.Equal(t, CodeInvalidParams, resps[0].Error.Code)

	assert.Equal(t, IntID(3), resps[1].ID)
	require.NotNil(t, resps[1].Error)
	assert.Equal(t, CodeInternalError, resps[1].Error.Code)
	assert.Nil(t, resps[1].Error.Data)
}

func TestConnSurvivesMalformedInput(t *testing.T) {
	input := "Length: 5\r\n\r\nhello" +
		frames(`{"jsonrpc":`, `{"jsonrpc":"2.0","id":9,"result":{}}`, `{"jsonrpc":"2.0","id":1,"method":"a"}`)

	rec, resps, logs := runConn(t, input)

	assert.Equal(t, []string{"a"}, rec.requests)
	require.Len(t, resps, 1)
	assert.Equal(t, IntID(1), resps[0].ID)
	assert.Contains(t, logs, "dropping malformed frame")
	assert.Contains(t, logs, "dropping undecodable message")
	assert.Contains(t, logs, "dropping unexpected response")
}

func TestConnParseErrorReplies(t *testing.T) {
	input := frames(`{"jsonrpc":"2.0","id":5,"method":"a","params":`, `{"method":"n","params":`)

	_, resps, _ := runConn(t, input)
	assert.Empty(t, resps)

	_, resps, _ = runConn(t, input, WithParseErrorReplies(func() bool { return true }))
	require.Len(t, resps, 1)
	assert.Equal(t, IntID(5), resps[0].ID)
	assert.Equal(t, CodeParseError, resps[0].Error.Code)
}

func TestConnTruncatedStreamEndsCleanly(t *testing.T) {
	_, resps, logs := runConn(t, frames(`{"jsonrpc":"2.0","id":1,"method":"a"}`)+"Content-Length: 50\r\n\r\n{")

	require.Len(t, resps, 1)
	assert.Contains(t, logs, "incomplete body")
}

func TestConnTransportErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	conn := NewConn(NewCodec(iotest.ErrReader(boom), io.Discard), rec.handler, rec.notif)

	err := conn.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestConnClose(t *testing.T) {
	var out bytes.Buffer
	var conn *Conn
	handler := func(_ context.Context, method string, _ RawMessage) (interface{}, error) {
		if method == "exit" {
			conn.Close()
		}
		return nil, nil
	}
	input := frames(`{"jsonrpc":"2.0","method":"exit"}`, `{"jsonrpc":"2.0","id":1,"method":"late"}`)
	conn = NewConn(NewCodec(strings.NewReader(input), &out), handler, nil)

	require.NoError(t, conn.Run(context.Background()))
	assert.Empty(t, readResponses(t, out.Bytes()))
	select {
	case <-conn.Done():
	default:
		t.Fatal("Done not closed")
	}
}
