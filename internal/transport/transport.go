// Package transport abstracts the ordered byte stream a session runs over.
// The stream has no message boundaries; framing is the codec's job.
package transport

import (
	"errors"
	"io"
	"net"
	"time"
)

// ErrClosed is returned once the transport has been closed from either side.
var ErrClosed = errors.New("transport: closed")

// Transport is an ordered, reliable byte stream. Read and Write follow
// io semantics; Close unblocks both.
type Transport interface {
	io.Reader
	io.Writer
	Close() error
}

// NetTransport adapts a net.Conn, translating closed-connection errors to
// ErrClosed and applying an optional write deadline so a stalled peer cannot
// wedge the session's send path forever.
type NetTransport struct {
	conn         net.Conn
	writeTimeout time.Duration
}

// NewNetTransport wraps conn. A zero writeTimeout disables write deadlines.
func NewNetTransport(conn net.Conn, writeTimeout time.Duration) *NetTransport {
	return &NetTransport{conn: conn, writeTimeout: writeTimeout}
}

func (t *NetTransport) Read(p []byte) (int, error) {
	n, err := t.conn.Read(p)
	return n, mapErr(err)
}

func (t *NetTransport) Write(p []byte) (int, error) {
	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return 0, mapErr(err)
		}
	}
	n, err := t.conn.Write(p)
	return n, mapErr(err)
}

func (t *NetTransport) Close() error {
	return t.conn.Close()
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return ErrClosed
	}
	return err
}

// Pipe returns two in-memory transports wired back to back, for tests.
func Pipe() (Transport, Transport) {
	a, b := net.Pipe()
	return NewNetTransport(a, 0), NewNetTransport(b, 0)
}
