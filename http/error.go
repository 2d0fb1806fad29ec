package http

import (
	"errors"
	"fmt"
)

// Errors the request reader can resolve to. The connection handler closes
// the socket silently on ErrConnectionClosed, ErrTimeout and parse errors,
// answers 413 on ErrTooLarge, and reports anything else to the worker.
var (
	ErrTimeout          = errors.New("http: request read timed out")
	ErrTooLarge         = errors.New("http: request exceeds size limit")
	ErrConnectionClosed = errors.New("http: connection closed before a complete request")
)

// ParseError reports a request that violates the HTTP/1.1 request grammar.
// It is non-retryable: reading more bytes cannot make the request valid.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("http: malformed request: %s", e.Reason)
}

func malformed(reason string) *ParseError {
	return &ParseError{Reason: reason}
}
