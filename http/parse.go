package http

import "bytes"

// indices marks a half-open [start, end) range inside the receive buffer.
// Fields parsed out of a request are recorded as ranges instead of copies,
// so exposing them allocates nothing.
type indices struct {
	start, end int
}

func (i indices) view(buf []byte) []byte {
	return buf[i.start:i.end]
}

func (i indices) len() int {
	return i.end - i.start
}

type headerIndices struct {
	name  indices
	value indices
}

// parsedRequest indexes one complete request head inside the buffer it was
// parsed from. Every accessor returns a view into that buffer; nothing is
// copied until the request is materialized for the handler.
type parsedRequest struct {
	method  indices
	path    indices
	proto   indices
	headers []headerIndices
	body    indices
	buffer  []byte
}

func (r *parsedRequest) Method() []byte {
	return r.method.view(r.buffer)
}

func (r *parsedRequest) Path() []byte {
	return r.path.view(r.buffer)
}

func (r *parsedRequest) Proto() []byte {
	return r.proto.view(r.buffer)
}

func (r *parsedRequest) HeaderAt(i int) (name, value []byte) {
	h := r.headers[i]
	return h.name.view(r.buffer), h.value.view(r.buffer)
}

// splitBody detaches the body bytes and truncates the buffer to the head.
// Method, path and header views stay valid: they all point before the split.
func (r *parsedRequest) splitBody() []byte {
	body := make([]byte, r.body.len())
	copy(body, r.body.view(r.buffer))
	r.buffer = r.buffer[:r.body.start]
	r.body = indices{r.body.start, r.body.start}
	return body
}

type parseStatus int

const (
	parseComplete parseStatus = iota
	parsePartial
)

// tryParseRequest attempts to parse a complete request head from buf. It
// reports parsePartial while buf lacks the terminating blank line and a
// *ParseError as soon as a completed line violates the grammar. The parser
// keeps no state between calls: it always starts from the beginning of buf,
// so callers simply retry it on the whole accumulated buffer.
//
// All offsets in the returned parsedRequest point into buf itself. The body
// range covers whatever bytes follow the blank line; a request without a
// body yields an empty range at the end of the head.
func tryParseRequest(buf []byte) (*parsedRequest, parseStatus, error) {
	line, found := nextLine(buf, 0)
	if !found {
		return nil, parsePartial, nil
	}
	method, path, proto, err := parseRequestLine(buf, line)
	if err != nil {
		return nil, parsePartial, err
	}
	pos := line.end + 2

	var headers []headerIndices
	for {
		line, found = nextLine(buf, pos)
		if !found {
			return nil, parsePartial, nil
		}
		if line.len() == 0 {
			pos = line.end + 2
			break
		}
		if len(headers) == MaxRequestHeaders {
			return nil, parsePartial, malformed("too many headers")
		}
		header, err := parseHeaderLine(buf, line)
		if err != nil {
			return nil, parsePartial, err
		}
		headers = append(headers, header)
		pos = line.end + 2
	}

	return &parsedRequest{
		method:  method,
		path:    path,
		proto:   proto,
		headers: headers,
		body:    indices{pos, len(buf)},
		buffer:  buf,
	}, parseComplete, nil
}

// nextLine locates the CRLF-terminated line starting at pos. The returned
// range excludes the terminator.
func nextLine(buf []byte, pos int) (indices, bool) {
	i := bytes.Index(buf[pos:], crlf)
	if i < 0 {
		return indices{}, false
	}
	return indices{pos, pos + i}, true
}

func parseRequestLine(buf []byte, line indices) (method, path, proto indices, err error) {
	sp := bytes.IndexByte(line.view(buf), ' ')
	if sp <= 0 {
		err = malformed("missing method")
		return
	}
	method = indices{line.start, line.start + sp}
	if !isToken(method.view(buf)) {
		err = malformed("invalid method")
		return
	}

	rest := indices{method.end + 1, line.end}
	sp = bytes.IndexByte(rest.view(buf), ' ')
	if sp <= 0 {
		err = malformed("missing request target")
		return
	}
	path = indices{rest.start, rest.start + sp}

	proto = indices{path.end + 1, line.end}
	version := proto.view(buf)
	if !bytes.Equal(version, protocolHTTP11) && !bytes.Equal(version, protocolHTTP10) {
		err = malformed("unsupported protocol version")
	}
	return
}

func parseHeaderLine(buf []byte, line indices) (headerIndices, error) {
	colon := bytes.IndexByte(line.view(buf), ':')
	if colon <= 0 {
		return headerIndices{}, malformed("header line missing name")
	}
	name := indices{line.start, line.start + colon}
	if !isToken(name.view(buf)) {
		return headerIndices{}, malformed("invalid header name")
	}

	// Trim optional whitespace around the value.
	start, end := name.end+1, line.end
	for start < end && (buf[start] == ' ' || buf[start] == '\t') {
		start++
	}
	for end > start && (buf[end-1] == ' ' || buf[end-1] == '\t') {
		end--
	}
	return headerIndices{name: name, value: indices{start, end}}, nil
}

// tchars per RFC 7230 section 3.2.6.
var tcharTable = func() (t [256]bool) {
	for _, c := range []byte("!#$%&'*+-.^_`|~") {
		t[c] = true
	}
	for c := byte('0'); c <= '9'; c++ {
		t[c] = true
	}
	for c := byte('a'); c <= 'z'; c++ {
		t[c] = true
	}
	for c := byte('A'); c <= 'Z'; c++ {
		t[c] = true
	}
	return t
}()

func isToken(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !tcharTable[c] {
			return false
		}
	}
	return true
}
