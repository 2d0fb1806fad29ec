package http

import (
	"bufio"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"
	"golang.org/x/net/http/httpguts"
)

// Response is a complete response ready for serialization. Internal error
// paths build one directly; handlers go through ResponseBuilder.
type Response struct {
	Status  int
	Headers Headers
	Body    []byte
}

// ResponseBuilder accumulates a response. Construction errors (status code
// out of range, invalid header name or value) are recorded and surface from
// Body, so a handler can chain calls and propagate the first failure with a
// single return.
type ResponseBuilder struct {
	response Response
	err      error
}

func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{response: Response{Status: http.StatusOK}}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	if b.err == nil && (code < 100 || code > 999) {
		b.err = fmt.Errorf("http: invalid status code %d", code)
		return b
	}
	b.response.Status = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	if b.err != nil {
		return b
	}
	if !httpguts.ValidHeaderFieldName(name) {
		b.err = fmt.Errorf("http: invalid header name %q", name)
		return b
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		b.err = fmt.Errorf("http: invalid value for header %s", name)
		return b
	}
	b.response.Headers.Add(name, value)
	return b
}

// Body completes the response, returning the first construction error
// recorded by earlier calls.
func (b *ResponseBuilder) Body(body []byte) (*Response, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.response.Body = body
	return &b.response, nil
}

func errorResponse(status int, body []byte) *Response {
	return &Response{Status: status, Body: body}
}

// write serializes the response: status line and headers as one chunk, the
// body as a second, then a flush. date, connection and content-length are
// injected only when absent; headers the handler set are emitted verbatim,
// in insertion order, and never duplicated or overwritten. connection is
// always close because this server never keeps a connection alive.
//
// A status code without a canonical reason phrase is a programming error
// and panics.
func (resp *Response) write(w *bufio.Writer) error {
	reason := http.StatusText(resp.Status)
	if reason == "" {
		panic(fmt.Sprintf("http: no canonical reason phrase for status %d", resp.Status))
	}

	head := bytebufferpool.Get()
	defer bytebufferpool.Put(head)

	fmt.Fprintf(head, "HTTP/1.1 %d %s\r\n", resp.Status, reason)
	for _, entry := range resp.Headers.Entries() {
		head.WriteString(entry.Name)
		head.WriteString(": ")
		head.WriteString(entry.Value)
		head.Write(crlf)
	}
	if !resp.Headers.Has("date") {
		head.WriteString("date: ")
		head.WriteString(time.Now().UTC().Format(http.TimeFormat))
		head.Write(crlf)
	}
	if !resp.Headers.Has("connection") {
		head.WriteString("connection: close\r\n")
	}
	if !resp.Headers.Has("content-length") {
		head.WriteString("content-length: ")
		head.WriteString(strconv.Itoa(len(resp.Body)))
		head.Write(crlf)
	}
	head.Write(crlf)

	if _, err := w.Write(head.B); err != nil {
		return fmt.Errorf("http: write response head: %w", err)
	}
	if _, err := w.Write(resp.Body); err != nil {
		return fmt.Errorf("http: write response body: %w", err)
	}
	return w.Flush()
}
