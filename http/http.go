// Package http implements a minimal blocking HTTP/1.1 server: a bounded
// worker pool accepts connections, each request is read incrementally into a
// single receive buffer, parsed without copying, then dispatched to a
// handler function or served from a static directory, and answered with one
// well-formed HTTP/1.1 response. Connections are never kept alive.
package http

import "time"

const (
	// MaxRequestSize caps the bytes buffered for a single request (head and
	// body) before the server answers 413.
	MaxRequestSize = 2 * 1024 * 1024 // 2MB

	DefaultWriteBufferSize = 4096 // 4kB

	// MaxRequestHeaders is the header count a request may carry before it
	// is treated as malformed.
	MaxRequestHeaders = 32

	// pollReadTimeout is armed on the socket before every read so the
	// request reader can check its own wall-clock deadline between reads.
	pollReadTimeout = 20 * time.Millisecond

	initialBufferSize = 512
)

// Handler is the single extension point of the server. It receives a fully
// parsed request and an empty response builder, and returns the response to
// write. A non-nil error (or a nil response) makes the server answer with
// the fixed 500 page; a handler that wants a specific error status must
// return a response with that status set.
type Handler func(req *Request, res *ResponseBuilder) (*Response, error)

var (
	protocolHTTP10 = []byte("HTTP/1.0")
	protocolHTTP11 = []byte("HTTP/1.1")

	crlf = []byte("\r\n")

	// Fixed bodies for the statuses the server produces on its own.
	body404 = []byte("<h1>404</h1><p>Not found!<p>")
	body413 = []byte("<h1>413</h1><p>Request too large!<p>")
	body500 = []byte("<h1>500</h1><p>Internal Server Error!<p>")
)
