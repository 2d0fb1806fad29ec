package http

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// readRequest reads from stream until the buffer holds a complete request
// head, growing it up to maxSize bytes. The deadline is wall-clock from the
// first call: a client dribbling one byte per read is still cut off at
// timeout. A zero timeout means no deadline.
//
// Reads that time out at the transport level only trigger the deadline
// check; the distinction between "no data yet" and "peer is gone" comes
// from io.EOF, which resolves to ErrConnectionClosed when the head is still
// incomplete.
func readRequest(stream io.Reader, maxSize int, timeout time.Duration) (*parsedRequest, error) {
	start := time.Now()
	buf := make([]byte, 0, min(initialBufferSize, maxSize))

	for {
		if len(buf) >= maxSize {
			return nil, ErrTooLarge
		}
		buf = grow(buf, maxSize)

		n, err := stream.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]

		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				if n == 0 {
					return nil, ErrConnectionClosed
				}
				// Parse whatever arrived with the final read.
			case isWouldBlock(err):
				if timeout > 0 && time.Since(start) > timeout {
					return nil, ErrTimeout
				}
				continue
			default:
				return nil, fmt.Errorf("http: read request: %w", err)
			}
		}
		if n == 0 && err == nil {
			continue
		}

		request, status, parseErr := tryParseRequest(buf)
		if parseErr != nil {
			return nil, parseErr
		}
		if status == parseComplete {
			return request, nil
		}
		if err != nil {
			return nil, ErrConnectionClosed
		}
	}
}

// grow makes room for the next read, doubling the capacity but never past
// maxSize. The buffer backing parsed offsets is only ever replaced here,
// before a parse attempt.
func grow(buf []byte, maxSize int) []byte {
	if len(buf) < cap(buf) {
		return buf
	}
	grown := make([]byte, len(buf), min(cap(buf)*2, maxSize))
	copy(grown, buf)
	return grown
}

// isWouldBlock classifies transport errors that mean "no bytes right now"
// rather than a broken connection.
func isWouldBlock(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// pollingConn arms a short read deadline before every read so a blocked
// socket read surfaces as a timeout error that readRequest can weigh
// against its own wall-clock deadline.
type pollingConn struct {
	conn net.Conn
}

func (p pollingConn) Read(b []byte) (int, error) {
	if err := p.conn.SetReadDeadline(time.Now().Add(pollReadTimeout)); err != nil {
		return 0, err
	}
	return p.conn.Read(b)
}
