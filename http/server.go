package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/quarryhq/basalt/filesystem"
)

const (
	// DefaultStaticDirectory is served when the embedding program never
	// calls SetStaticDirectory.
	DefaultStaticDirectory = "public"

	// PoolSizeEnv overrides the worker pool size. Unset or unparsable
	// values fall back to the logical core count.
	PoolSizeEnv = "BASALT_THREADS"
)

// Server owns the listen loop and the per-connection pipeline. Its
// configuration is resolved at construction and immutable once Listen is
// called, so workers share it without synchronization.
type Server struct {
	handler        Handler
	timeout        time.Duration
	staticDir      string
	poolSize       int
	maxRequestSize int

	fsys filesystem.Filesystem

	requestsServed metric.Int64Counter
}

// New constructs a server with the given handler and no read timeout.
//
// The handler returns an error so that failures can simply be propagated;
// any error is answered with a generic 500 page. A handler that wants a
// particular error status must return a response with that status set.
func New(handler Handler) *Server {
	return newServer(handler, 0)
}

// WithTimeout constructs a server that gives up on a connection when a
// complete request head has not arrived within timeout, measured from the
// first read.
func WithTimeout(timeout time.Duration, handler Handler) *Server {
	return newServer(handler, timeout)
}

func newServer(handler Handler, timeout time.Duration) *Server {
	requestsServed, err := otel.Meter("github.com/quarryhq/basalt/http").Int64Counter(
		"basalt.requests",
		metric.WithDescription("Number of responses written, by status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		slog.Error("creating request counter failed", "error", err)
	}

	return &Server{
		handler:        handler,
		timeout:        timeout,
		staticDir:      DefaultStaticDirectory,
		poolSize:       poolSizeFromEnv(),
		maxRequestSize: MaxRequestSize,
		fsys:           filesystem.NewLocalFileSystem(),
		requestsServed: requestsServed,
	}
}

// SetStaticDirectory changes the directory tried before the handler runs.
// An empty path disables static file serving.
func (s *Server) SetStaticDirectory(path string) {
	s.staticDir = path
}

func poolSizeFromEnv() int {
	if v := os.Getenv(PoolSizeEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

// Listen binds host:port and serves forever. It returns only when the
// listener cannot be constructed; every later failure is contained within
// the connection it belongs to.
func (s *Server) Listen(host, port string) error {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("http: bind %s:%s: %w", host, port, err)
	}

	slog.Info("server started", "host", host, "port", port, "workers", s.poolSize)
	s.ListenOnSocket(listener)
	return nil
}

// ListenOnSocket serves on a pre-bound listener. It accepts connections
// until the listener is closed, blocking whenever every worker is busy. An
// accept failure on a live listener is logged and retried.
func (s *Server) ListenOnSocket(listener net.Listener) {
	pool := newWorkerPool(s.poolSize, s.serveConn)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Error("accept failed", "error", err)
			continue
		}
		pool.dispatch(conn)
	}
}

// serveConn runs the whole per-connection pipeline on a pool worker. A
// failed connection is logged and released; it never takes the worker down.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	logger := slog.With("conn", uuid.NewString(), "remote", conn.RemoteAddr().String())
	if err := s.handleConnection(conn, logger); err != nil {
		logger.Error("connection failed", "error", err)
	}
}

// handleConnection is the per-connection state machine: read the request,
// try the static directory, fall back to the handler, write exactly one
// response. Peers that vanish, stall past the deadline or send garbage get
// a silent close; only unexpected I/O errors reach the caller.
func (s *Server) handleConnection(conn net.Conn, logger *slog.Logger) error {
	bw := bufio.NewWriterSize(conn, DefaultWriteBufferSize)

	parsed, err := readRequest(pollingConn{conn}, s.maxRequestSize, s.timeout)
	if err != nil {
		var parseErr *ParseError
		switch {
		case errors.Is(err, ErrConnectionClosed), errors.Is(err, ErrTimeout), errors.As(err, &parseErr):
			logger.Debug("dropping connection", "reason", err)
			return nil
		case errors.Is(err, ErrTooLarge):
			return s.writeResponse(errorResponse(http.StatusRequestEntityTooLarge, body413), bw, logger)
		default:
			return err
		}
	}

	request, err := buildRequest(parsed)
	if err != nil {
		logger.Debug("dropping connection", "reason", err)
		return nil
	}

	if s.staticDir != "" {
		path, outcome := resolveStatic(s.fsys, s.staticDir, request.Path)
		switch outcome {
		case staticRejected:
			logger.Debug("rejected traversal attempt", "path", request.Path)
			return s.writeResponse(errorResponse(http.StatusNotFound, body404), bw, logger)
		case staticHit:
			source, err := s.fsys.ReadFile(path)
			if err != nil {
				logger.Debug("static file vanished", "path", path, "error", err)
				return s.writeResponse(errorResponse(http.StatusNotFound, body404), bw, logger)
			}
			response, _ := NewResponseBuilder().Body(source)
			return s.writeResponse(response, bw, logger)
		}
	}

	response, err := s.handler(request, NewResponseBuilder())
	if err != nil || response == nil {
		if err != nil {
			logger.Warn("handler failed", "error", err)
		}
		response = errorResponse(http.StatusInternalServerError, body500)
	}
	return s.writeResponse(response, bw, logger)
}

// writeResponse records the outcome and writes the response. Write errors
// are not retried: the connection is dropped as-is.
func (s *Server) writeResponse(response *Response, bw *bufio.Writer, logger *slog.Logger) error {
	s.requestsServed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Int("http.status", response.Status)))

	if err := response.write(bw); err != nil {
		logger.Debug("dropping connection", "reason", err)
	}
	return nil
}
