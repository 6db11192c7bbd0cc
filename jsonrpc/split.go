package jsonrpc

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"
)

// HeaderPrefix is the only header recognized on the wire.
const HeaderPrefix = "Content-Length: "

var delimiter = []byte("\r\n\r\n")

// MaxHeaderLength bounds the header the codec will buffer while waiting for
// "\r\n\r\n".
const MaxHeaderLength = 4096

// SplitFrame extracts one complete frame from the front of buf.
//
// On success it returns the number of bytes the frame occupies and the body
// slice (aliasing buf). When buf does not yet hold a complete frame it returns
// (0, nil, nil) and the caller must keep every buffered byte and retry after
// more input arrives. A malformed header yields a *FrameError.
func SplitFrame(buf []byte) (consumed int, body []byte, err error) {
	return splitFrame(buf, frameLimits{})
}

// frameLimits bounds what splitFrame accepts. Zero fields disable a check.
type frameLimits struct {
	body   int
	header int
}

func splitFrame(buf []byte, limits frameLimits) (int, []byte, error) {
	headerEnd := bytes.Index(buf, delimiter)
	if limits.header > 0 {
		if headerEnd > limits.header || headerEnd < 0 && len(buf) >= limits.header+len(delimiter) {
			return 0, nil, &FrameError{Kind: HeaderTooLarge, Available: limits.header}
		}
	}
	if headerEnd < 0 {
		return 0, nil, nil
	}

	n, err := parseHeader(buf[:headerEnd])
	if err != nil {
		return 0, nil, err
	}
	if limits.body > 0 && n > limits.body {
		return 0, nil, &FrameError{Kind: FrameTooLarge, Expected: n, Available: limits.body}
	}

	bodyStart := headerEnd + len(delimiter)
	if len(buf)-bodyStart < n {
		return 0, nil, nil
	}

	consumed := bodyStart + n
	return consumed, buf[bodyStart:consumed], nil
}

// parseHeader returns the body length declared by a header, excluding its
// "\r\n\r\n" terminator.
func parseHeader(rawHeader []byte) (int, error) {
	if !utf8.Valid(rawHeader) {
		return 0, &FrameError{Kind: HeaderNotUTF8}
	}
	header := string(rawHeader)

	field, ok := strings.CutPrefix(header, HeaderPrefix)
	if !ok {
		return 0, &FrameError{Kind: MissingPrefix, Found: header}
	}
	field = strings.TrimSpace(field)

	contentLength, err := strconv.ParseInt(field, 10, 0)
	if err != nil || contentLength < 0 {
		return 0, &FrameError{Kind: InvalidLengthField, Field: field}
	}
	return int(contentLength), nil
}

// AppendFrame appends the wire form of body to dst:
// "Content-Length: " <byte count> "\r\n\r\n" <body>.
func AppendFrame(dst, body []byte) []byte {
	dst = append(dst, HeaderPrefix...)
	dst = strconv.AppendInt(dst, int64(len(body)), 10)
	dst = append(dst, delimiter...)
	return append(dst, body...)
}
