package http

import (
	"fmt"
	"net/url"
)

// Request is the materialized request handed to the handler: owned strings
// and bytes, copied out of the receive buffer exactly once. It is not
// modified by the server after construction.
type Request struct {
	Method  string
	Path    string
	URL     *url.URL
	Proto   string
	Headers Headers
	Body    []byte
}

// Header returns the first value of the named header.
func (req *Request) Header(name string) (string, bool) {
	return req.Headers.Get(name)
}

// buildRequest copies the parsed views into an owned Request and validates
// the request target. Offsets into the receive buffer do not outlive this
// call.
func buildRequest(parsed *parsedRequest) (*Request, error) {
	body := parsed.splitBody()

	req := &Request{
		Method: string(parsed.Method()),
		Path:   string(parsed.Path()),
		Proto:  string(parsed.Proto()),
		Body:   body,
	}
	for i := range parsed.headers {
		name, value := parsed.HeaderAt(i)
		req.Headers.Add(string(name), string(value))
	}

	u, err := url.ParseRequestURI(req.Path)
	if err != nil {
		return nil, malformed(fmt.Sprintf("invalid request target %q", req.Path))
	}
	req.URL = u

	return req, nil
}
