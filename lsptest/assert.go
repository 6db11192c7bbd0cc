package lsptest

import (
	"strings"
	"testing"

	"github.com/gossip-lsp/toylsp/jsonrpc"
	"github.com/gossip-lsp/toylsp/protocol"
)

// AssertHoverContains asserts that the hover result contains the expected substring.
func AssertHoverContains(t testing.TB, hover *protocol.Hover, substr string) {
	t.Helper()
	if hover == nil {
		t.Fatal("hover result is nil")
	}
	if !strings.Contains(hover.Contents, substr) {
		t.Errorf("hover contents %q does not contain %q", hover.Contents, substr)
	}
}

// AssertErrorCode asserts that resp is an error response with the given code.
func AssertErrorCode(t testing.TB, resp *jsonrpc.Response, code int) {
	t.Helper()
	if resp.Error == nil {
		t.Fatalf("expected error %d, got result %s", code, resp.Result)
	}
	if resp.Error.Code != code {
		t.Errorf("expected error code %d, got %d (%s)", code, resp.Error.Code, resp.Error.Message)
	}
}

// AssertLogged asserts that logs contain every given fragment.
func AssertLogged(t testing.TB, logs *LogBuffer, fragments ...string) {
	t.Helper()
	out := logs.String()
	for _, f := range fragments {
		if !strings.Contains(out, f) {
			t.Errorf("logs do not contain %q:\n%s", f, out)
		}
	}
}
