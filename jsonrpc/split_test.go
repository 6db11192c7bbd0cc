package jsonrpc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrameComplete(t *testing.T) {
	header := "Content-Length: 16"
	buf := []byte(header + "\r\n\r\n" + `{"testing":true}`)

	n, body, err := SplitFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, len(header)+4+16, n)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, `{"testing":true}`, string(body))
}

func TestSplitFrameLeavesFollowingFrame(t *testing.T) {
	buf := []byte("Content-Length: 2\r\n\r\n{}Content-Length: 4\r\n\r\nnull")

	n, body, err := SplitFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(body))

	n2, body2, err := SplitFrame(buf[n:])
	require.NoError(t, err)
	assert.Equal(t, "null", string(body2))
	assert.Equal(t, len(buf), n+n2)
}

func TestSplitFrameIncomplete(t *testing.T) {
	tests := []struct {
		name string
		buf  string
	}{
		{"empty", ""},
		{"partial header", "Content-Len"},
		{"header without delimiter", "Content-Length: 5\r\n"},
		{"partial body", "Content-Length: 5\r\n\r\nhel"},
		{"no body yet", "Content-Length: 5\r\n\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, body, err := SplitFrame([]byte(tt.buf))
			require.NoError(t, err)
			assert.Zero(t, n)
			assert.Nil(t, body)
		})
	}
}

func TestSplitFrameFragmentedMatchesWhole(t *testing.T) {
	whole := []byte("Content-Length: 17\r\n\r\n{\"method\":\"ping\"}")

	_, want, err := SplitFrame(whole)
	require.NoError(t, err)

	var buf []byte
	for i, b := range whole {
		buf = append(buf, b)
		n, body, err := SplitFrame(buf)
		require.NoError(t, err)
		if i < len(whole)-1 {
			require.Zero(t, n, "reported complete after %d bytes", i+1)
			continue
		}
		assert.Equal(t, len(whole), n)
		assert.Equal(t, want, body)
	}
}

func TestSplitFrameMalformed(t *testing.T) {
	tests := []struct {
		name  string
		buf   []byte
		kind  FrameErrorKind
		check func(t *testing.T, fe *FrameError)
	}{
		{
			name: "wrong prefix",
			buf:  []byte("Length: 5\r\n\r\nhello"),
			kind: MissingPrefix,
			check: func(t *testing.T, fe *FrameError) {
				assert.Equal(t, "Length: 5", fe.Found)
			},
		},
		{
			name: "lowercase prefix",
			buf:  []byte("content-length: 5\r\n\r\nhello"),
			kind: MissingPrefix,
		},
		{
			name: "not a number",
			buf:  []byte("Content-Length: five\r\n\r\nhello"),
			kind: InvalidLengthField,
			check: func(t *testing.T, fe *FrameError) {
				assert.Equal(t, "five", fe.Field)
			},
		},
		{
			name: "negative",
			buf:  []byte("Content-Length: -1\r\n\r\n"),
			kind: InvalidLengthField,
		},
		{
			name: "extra header",
			buf:  []byte("Content-Length: 2\r\nContent-Type: x\r\n\r\n{}"),
			kind: InvalidLengthField,
		},
		{
			name: "invalid utf-8",
			buf:  append([]byte("Content-Length: \xff\xfe"), "\r\n\r\n{}"...),
			kind: HeaderNotUTF8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, body, err := SplitFrame(tt.buf)
			assert.Zero(t, n)
			assert.Nil(t, body)

			var fe *FrameError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.kind, fe.Kind)
			if tt.check != nil {
				tt.check(t, fe)
			}
		})
	}
}

func TestSplitFrameTrimsLengthField(t *testing.T) {
	n, body, err := SplitFrame([]byte("Content-Length:  2 \r\n\r\n{}"))
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Equal(t, "{}", string(body))
}

func TestSplitFrameLimit(t *testing.T) {
	_, _, err := splitFrame([]byte("Content-Length: 10\r\n\r\n"), frameLimits{body: 4})

	var fe *FrameError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FrameTooLarge, fe.Kind)
	assert.Equal(t, 10, fe.Expected)
	assert.Equal(t, 4, fe.Available)
}

func TestSplitFrameHeaderLimit(t *testing.T) {
	limits := frameLimits{header: 32}
	tests := []struct {
		name    string
		buf     string
		tooLong bool
	}{
		{"short partial header", "Content-Length: 2", false},
		{"unterminated at limit", strings.Repeat("x", 35), false},
		{"unterminated past limit", strings.Repeat("x", 36), true},
		{"terminated past limit", strings.Repeat("x", 33) + "\r\n\r\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := splitFrame([]byte(tt.buf), limits)
			if !tt.tooLong {
				assert.NoError(t, err)
				return
			}
			var fe *FrameError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, HeaderTooLarge, fe.Kind)
		})
	}

	n, body, err := SplitFrame([]byte(strings.Repeat("x", 100)))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, body)
}

func TestAppendFrameCountsBytes(t *testing.T) {
	body := []byte(`"héllo 😜"`)
	frame := AppendFrame(nil, body)

	assert.Equal(t, "Content-Length: 13\r\n\r\n\"héllo 😜\"", string(frame))

	n, got, err := SplitFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.Equal(t, body, got)
}
