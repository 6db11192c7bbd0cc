package jsonrpc

import (
	"errors"
	"fmt"
)

// FrameErrorKind classifies why a frame could not be split off the stream.
type FrameErrorKind int

const (
	// MissingDelimiter means the stream ended before a header terminator arrived.
	MissingDelimiter FrameErrorKind = iota + 1
	// HeaderNotUTF8 means the header bytes are not valid UTF-8.
	HeaderNotUTF8
	// MissingPrefix means the header does not start with "Content-Length: ".
	MissingPrefix
	// InvalidLengthField means the Content-Length value is not a non-negative integer.
	InvalidLengthField
	// IncompleteBody means the stream ended before the declared body arrived.
	IncompleteBody
	// FrameTooLarge means the declared body exceeds the configured maximum.
	FrameTooLarge
	// HeaderTooLarge means no "\r\n\r\n" arrived within the header limit.
	HeaderTooLarge
)

func (k FrameErrorKind) String() string {
	switch k {
	case MissingDelimiter:
		return "missing delimiter"
	case HeaderNotUTF8:
		return "header not utf-8"
	case MissingPrefix:
		return "missing prefix"
	case InvalidLengthField:
		return "invalid length field"
	case IncompleteBody:
		return "incomplete body"
	case FrameTooLarge:
		return "frame too large"
	case HeaderTooLarge:
		return "header too large"
	default:
		return "unknown"
	}
}

// FrameError describes a malformed or truncated frame. All kinds are
// recoverable: the codec abandons the attempt and keeps reading.
type FrameError struct {
	Kind FrameErrorKind

	// Found is the offending header for MissingPrefix.
	Found string
	// Field is the unparsable length value for InvalidLengthField.
	Field string
	// Expected and Available are byte counts for IncompleteBody and
	// FrameTooLarge. Available is the header limit for HeaderTooLarge.
	Expected  int
	Available int
}

func (e *FrameError) Error() string {
	switch e.Kind {
	case MissingDelimiter:
		return `could not find the message separator "\r\n\r\n"`
	case HeaderNotUTF8:
		return "header bytes are not valid UTF-8"
	case MissingPrefix:
		return fmt.Sprintf("expected header to start with %q, found %q", HeaderPrefix, e.Found)
	case InvalidLengthField:
		return fmt.Sprintf("failed to parse Content-Length value %q as a non-negative integer", e.Field)
	case IncompleteBody:
		return fmt.Sprintf("declared Content-Length is %d but only %d bytes of body were received", e.Expected, e.Available)
	case FrameTooLarge:
		return fmt.Sprintf("declared Content-Length %d exceeds the limit of %d bytes", e.Expected, e.Available)
	case HeaderTooLarge:
		return fmt.Sprintf("no header terminator within %d bytes", e.Available)
	default:
		return "malformed frame"
	}
}

// IsFrameError reports whether err is (or wraps) a *FrameError.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}

// ErrEncode marks failures to serialize an outgoing message, as opposed to
// failures writing it to the transport.
var ErrEncode = errors.New("encoding message")
