package toylsp

import (
	"errors"
	"fmt"
)

var (
	// ErrMethodNotFound is reported for methods with no registered handler.
	ErrMethodNotFound = errors.New("method not found")

	// ErrShutdown is reported for requests that arrive after shutdown.
	ErrShutdown = errors.New("server is shutting down")

	errMissingParams = errors.New("params are required")
)

// ParamsError is returned when a message's params do not decode into the
// type its method expects.
type ParamsError struct {
	Method string
	Err    error
}

func (e *ParamsError) Error() string {
	return fmt.Sprintf("invalid params for %s: %v", e.Method, e.Err)
}

func (e *ParamsError) Unwrap() error { return e.Err }
