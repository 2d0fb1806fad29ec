package http

import (
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// startServer serves s on an ephemeral port and returns its address. The
// listener closes with the test, which ends the accept loop.
func startServer(t *testing.T, s *Server) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { listener.Close() })

	go s.ListenOnSocket(listener)
	return listener.Addr().String()
}

func roundTrip(t *testing.T, addr, raw string) string {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(raw)); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	response, err := io.ReadAll(conn)
	if err != nil {
		t.Fatal(err)
	}
	return string(response)
}

func TestServeHandlerResponse(t *testing.T) {
	s := New(func(req *Request, res *ResponseBuilder) (*Response, error) {
		return res.Body([]byte("hello world"))
	})
	s.SetStaticDirectory("")
	addr := startServer(t, s)

	raw := roundTrip(t, addr, "GET / HTTP/1.1\r\nHost: 127.0.0.1\r\n\r\n")

	if !strings.HasPrefix(raw, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("Expected 200 OK, got %q", raw)
	}
	for _, want := range []string{"content-length: 11\r\n", "connection: close\r\n"} {
		if !strings.Contains(raw, want) {
			t.Errorf("Expected %q in response, got %q", want, raw)
		}
	}
	if !strings.HasSuffix(raw, "\r\n\r\nhello world") {
		t.Errorf("Expected body at the end, got %q", raw)
	}
}

func TestServeHandlerSeesRequest(t *testing.T) {
	var got atomic.Pointer[Request]
	s := New(func(req *Request, res *ResponseBuilder) (*Response, error) {
		got.Store(req)
		return res.Body(nil)
	})
	s.SetStaticDirectory("")
	addr := startServer(t, s)

	roundTrip(t, addr, "POST /submit HTTP/1.1\r\nHost: 127.0.0.1\r\nX-Tag: x\r\n\r\n")

	req := got.Load()
	if req == nil {
		t.Fatal("Handler never invoked")
	}
	if req.Method != "POST" || req.Path != "/submit" {
		t.Errorf("Expected POST /submit, got %s %s", req.Method, req.Path)
	}
	if tag, _ := req.Header("x-tag"); tag != "x" {
		t.Errorf("Expected header x-tag: x, got %q", tag)
	}
}

func TestServeHandlerErrorBecomes500(t *testing.T) {
	s := New(func(req *Request, res *ResponseBuilder) (*Response, error) {
		return res.Header("x-powered-by", "bad\x00value").Body([]byte("never sent"))
	})
	s.SetStaticDirectory("")
	addr := startServer(t, s)

	raw := roundTrip(t, addr, "GET / HTTP/1.1\r\nHost: 127.0.0.1\r\n\r\n")

	if !strings.HasPrefix(raw, "HTTP/1.1 500 Internal Server Error\r\n") {
		t.Errorf("Expected 500, got %q", raw)
	}
	if !strings.HasSuffix(raw, "<h1>500</h1><p>Internal Server Error!<p>") {
		t.Errorf("Expected the fixed 500 page, got %q", raw)
	}
}

func TestServeStaticFile(t *testing.T) {
	root := t.TempDir()
	content := []byte("<html><body>static!</body></html>")
	if err := os.WriteFile(filepath.Join(root, "index.html"), content, 0644); err != nil {
		t.Fatal(err)
	}

	var handlerCalled atomic.Bool
	s := New(func(req *Request, res *ResponseBuilder) (*Response, error) {
		handlerCalled.Store(true)
		return res.Body(nil)
	})
	s.SetStaticDirectory(root)
	addr := startServer(t, s)

	raw := roundTrip(t, addr, "GET /index.html HTTP/1.1\r\nHost: 127.0.0.1\r\n\r\n")

	if !strings.HasPrefix(raw, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("Expected 200 OK, got %q", raw)
	}
	if !strings.HasSuffix(raw, string(content)) {
		t.Errorf("Expected the file bytes as body, got %q", raw)
	}
	if handlerCalled.Load() {
		t.Error("Handler invoked on a static hit")
	}
}

func TestServeTraversalAnswers404(t *testing.T) {
	root := t.TempDir()

	var handlerCalled atomic.Bool
	s := New(func(req *Request, res *ResponseBuilder) (*Response, error) {
		handlerCalled.Store(true)
		return res.Body(nil)
	})
	s.SetStaticDirectory(root)
	addr := startServer(t, s)

	raw := roundTrip(t, addr, "GET /../etc/passwd HTTP/1.1\r\nHost: 127.0.0.1\r\n\r\n")

	if !strings.HasPrefix(raw, "HTTP/1.1 404 Not Found\r\n") {
		t.Errorf("Expected 404, got %q", raw)
	}
	if !strings.HasSuffix(raw, "<h1>404</h1><p>Not found!<p>") {
		t.Errorf("Expected the fixed 404 page, got %q", raw)
	}
	if handlerCalled.Load() {
		t.Error("Handler invoked on a rejected traversal")
	}
}

func TestServeRequestTooLargeAnswers413(t *testing.T) {
	s := New(func(req *Request, res *ResponseBuilder) (*Response, error) {
		return res.Body(nil)
	})
	s.SetStaticDirectory("")
	s.maxRequestSize = 256
	addr := startServer(t, s)

	raw := roundTrip(t, addr, "GET / HTTP/1.1\r\nX-Filler: "+strings.Repeat("a", 512))

	if !strings.HasPrefix(raw, "HTTP/1.1 413 Request Entity Too Large\r\n") {
		t.Errorf("Expected 413, got %q", raw)
	}
	if !strings.HasSuffix(raw, "<h1>413</h1><p>Request too large!<p>") {
		t.Errorf("Expected the fixed 413 page, got %q", raw)
	}
}

func TestServeTimeoutClosesSilently(t *testing.T) {
	s := WithTimeout(100*time.Millisecond, func(req *Request, res *ResponseBuilder) (*Response, error) {
		return res.Body(nil)
	})
	s.SetStaticDirectory("")
	addr := startServer(t, s)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Send an incomplete head and then stall.
	if _, err := conn.Write([]byte("GET / HT")); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	response, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("Expected a clean close, got %v", err)
	}
	if len(response) != 0 {
		t.Errorf("Expected no response bytes, got %q", response)
	}
}

func TestServeMalformedClosesSilently(t *testing.T) {
	s := New(func(req *Request, res *ResponseBuilder) (*Response, error) {
		return res.Body(nil)
	})
	s.SetStaticDirectory("")
	addr := startServer(t, s)

	raw := roundTrip(t, addr, "THIS IS NOT HTTP\r\n\r\n")
	if raw != "" {
		t.Errorf("Expected no response for a malformed request, got %q", raw)
	}
}

func TestPoolSizeFromEnv(t *testing.T) {
	t.Setenv(PoolSizeEnv, "3")
	if s := New(nil); s.poolSize != 3 {
		t.Errorf("Expected pool size 3, got %d", s.poolSize)
	}

	t.Setenv(PoolSizeEnv, "not-a-number")
	if s := New(nil); s.poolSize < 1 {
		t.Errorf("Expected a positive fallback pool size, got %d", s.poolSize)
	}
}

func TestListenReportsBindErrors(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	_, port, _ := net.SplitHostPort(listener.Addr().String())
	s := New(nil)

	bindErr := s.Listen("127.0.0.1", port)
	if bindErr == nil {
		t.Fatal("Expected an error binding an occupied port")
	}
	var opErr *net.OpError
	if !errors.As(bindErr, &opErr) {
		t.Errorf("Expected the net error to be wrapped, got %v", bindErr)
	}
}
