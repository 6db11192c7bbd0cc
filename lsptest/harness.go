// Package lsptest provides testing utilities for toylsp servers.
// It includes an in-memory client that talks to a server over the real
// framing and dispatch path without network I/O, plus assertion helpers.
package lsptest

import (
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gossip-lsp/toylsp"
	"github.com/gossip-lsp/toylsp/jsonrpc"
	"github.com/gossip-lsp/toylsp/protocol"
	"github.com/gossip-lsp/toylsp/transport"
)

// Timeout bounds every wait the client performs.
var Timeout = 5 * time.Second

// Client is a test LSP client that communicates with a server over an
// in-memory transport. The server handles messages in order, so a
// notification's effects are visible to any request sent after it.
type Client struct {
	t         testing.TB
	transport transport.Transport
	codec     *jsonrpc.Codec
	nextID    atomic.Int64

	responses chan *jsonrpc.Response
	served    chan error
	serveErr  error
	stopped   bool
}

// NewClient creates a test client connected to the given server.
// The server runs in a background goroutine and is stopped when the test
// completes.
func NewClient(t testing.TB, s *toylsp.Server) *Client {
	clientTransport, serverTransport := transport.MemoryPipe()

	c := &Client{
		t:         t,
		transport: clientTransport,
		codec:     jsonrpc.NewCodec(clientTransport, clientTransport),
		responses: make(chan *jsonrpc.Response, 64),
		served:    make(chan error, 1),
	}

	go func() {
		c.served <- toylsp.Serve(s, toylsp.WithTransport(serverTransport))
	}()
	go c.readLoop()

	t.Cleanup(func() {
		clientTransport.Close()
		c.Wait()
	})
	return c
}

func (c *Client) readLoop() {
	defer close(c.responses)
	for {
		body, err := c.codec.Read()
		if err != nil {
			if errors.Is(err, io.EOF) || !jsonrpc.IsFrameError(err) {
				return
			}
			continue
		}
		msg, err := jsonrpc.DecodeMessage(body)
		if err != nil {
			continue
		}
		if resp, ok := msg.(*jsonrpc.Response); ok {
			c.responses <- resp
		}
	}
}

// Close hangs up on the server and reports the error Serve returned.
func (c *Client) Close() error {
	c.t.Helper()
	c.transport.Close()
	return c.Wait()
}

// Wait blocks until the server's Serve call returns and reports its error.
func (c *Client) Wait() error {
	c.t.Helper()
	if c.stopped {
		return c.serveErr
	}
	select {
	case c.serveErr = <-c.served:
		c.stopped = true
	case <-time.After(Timeout):
		c.t.Fatalf("server did not stop within %s", Timeout)
	}
	return c.serveErr
}

// Initialize sends the initialize request and initialized notification.
func (c *Client) Initialize() *protocol.InitializeResult {
	c.t.Helper()
	var result protocol.InitializeResult
	resp := c.Call(protocol.MethodInitialize, &protocol.InitializeParams{
		ClientInfo: &protocol.ClientInfo{Name: "lsptest"},
	}, &result)
	if resp.Error != nil {
		c.t.Fatalf("initialize failed: %v", resp.Error)
	}
	c.Notify(protocol.MethodInitialized, &protocol.InitializedParams{})
	return &result
}

// Open sends a textDocument/didOpen notification.
func (c *Client) Open(uri protocol.DocumentURI, text string) {
	c.t.Helper()
	c.Notify(protocol.MethodDidOpen, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "plaintext",
			Version:    1,
			Text:       text,
		},
	})
}

// Change sends a textDocument/didChange notification carrying one full
// content replacement per text, in order.
func (c *Client) Change(uri protocol.DocumentURI, version int32, texts ...string) {
	c.t.Helper()
	changes := make([]protocol.TextDocumentContentChangeEvent, len(texts))
	for i, text := range texts {
		changes[i] = protocol.TextDocumentContentChangeEvent{Text: text}
	}
	c.Notify(protocol.MethodDidChange, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                version,
		},
		ContentChanges: changes,
	})
}

// Hover sends a textDocument/hover request.
func (c *Client) Hover(uri protocol.DocumentURI, pos protocol.Position) *protocol.Hover {
	c.t.Helper()
	var result protocol.Hover
	resp := c.Call(protocol.MethodHover, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     pos,
		},
	}, &result)
	if resp.Error != nil {
		c.t.Fatalf("hover failed: %v", resp.Error)
	}
	return &result
}

// Shutdown sends the shutdown request and the exit notification, then
// waits for the session to end.
func (c *Client) Shutdown() error {
	c.t.Helper()
	resp := c.Call(protocol.MethodShutdown, nil, nil)
	if resp.Error != nil {
		c.t.Fatalf("shutdown failed: %v", resp.Error)
	}
	c.Notify(protocol.MethodExit, nil)
	return c.Wait()
}

// Call sends a request and returns its response, which must be the next
// one the server sends. If result is non-nil, a successful result is
// unmarshaled into it.
func (c *Client) Call(method string, params, result interface{}) *jsonrpc.Response {
	c.t.Helper()
	id := c.Send(method, params)
	resp := c.NextResponse()
	if resp.ID != id {
		c.t.Fatalf("expected response to %s, got response to %s", id, resp.ID)
	}
	if result != nil && resp.Error == nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			c.t.Fatalf("unmarshalling %s result: %v", method, err)
		}
	}
	return resp
}

// Send writes a request without waiting for its response and returns its id.
func (c *Client) Send(method string, params interface{}) jsonrpc.ID {
	c.t.Helper()
	id := jsonrpc.IntID(c.nextID.Add(1))
	c.write(&jsonrpc.Request{JSONRPC: jsonrpc.Version, ID: id, Method: method, Params: c.marshal(params)})
	return id
}

// Notify writes a notification.
func (c *Client) Notify(method string, params interface{}) {
	c.t.Helper()
	c.write(&jsonrpc.Notification{JSONRPC: jsonrpc.Version, Method: method, Params: c.marshal(params)})
}

// SendRaw writes data to the server exactly as given.
func (c *Client) SendRaw(data []byte) {
	c.t.Helper()
	if _, err := c.transport.Write(data); err != nil {
		c.t.Fatalf("writing raw bytes: %v", err)
	}
}

// NextResponse returns the next response from the server, failing the test
// if none arrives within Timeout.
func (c *Client) NextResponse() *jsonrpc.Response {
	c.t.Helper()
	select {
	case resp, ok := <-c.responses:
		if !ok {
			c.t.Fatal("server closed the connection")
		}
		return resp
	case <-time.After(Timeout):
		c.t.Fatalf("no response within %s", Timeout)
	}
	return nil
}

func (c *Client) marshal(params interface{}) jsonrpc.RawMessage {
	c.t.Helper()
	if params == nil {
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		c.t.Fatalf("marshalling params: %v", err)
	}
	return data
}

func (c *Client) write(msg jsonrpc.Message) {
	c.t.Helper()
	if err := c.codec.Write(msg); err != nil {
		c.t.Fatalf("writing message: %v", err)
	}
	if err := c.codec.Flush(); err != nil {
		c.t.Fatalf("flushing message: %v", err)
	}
}
