// Package transport implements the client (TCP or UDP) and server (TCP
// only) collaborators spec.md §1 places out of core scope, with only the
// `transport.send`/`transport.receive` interface in §6 as the contract
// the core (package message) relies on. It is grounded on the teacher's
// `internal/server` connection handling, generalized from an
// RPKI-RTR-specific protocol to any `message.Template`, and extended
// per SPEC_FULL.md §4 with named connection aliases and raw send/receive.
package transport

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kvemir/rammbock/internal/message"
)

// Connection wraps one accepted or dialed net.Conn with the buffered
// reader/writer pair the teacher's client_handler.go uses, plus a
// receive buffer that ResetStream empties so a long-running test suite
// can reuse the same socket across message exchanges (spec.md §4.6
// design note; SPEC_FULL.md §4 item 1).
type Connection struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	logger *zap.SugaredLogger
	alias  string
}

func newConnection(conn net.Conn, alias string, logger *zap.SugaredLogger) *Connection {
	return &Connection{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
		logger: logger.With("alias", alias),
		alias:  alias,
	}
}

// Alias returns this connection's registered name.
func (c *Connection) Alias() string { return c.alias }

// Send writes data to the peer, used by both templated and raw sends
// (SPEC_FULL.md §4 item 4: raw send/receive bypass the template
// entirely, but share the same wire write).
func (c *Connection) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.writer.Write(data); err != nil {
		return fmt.Errorf("transport: connection %q: write: %w", c.alias, err)
	}
	return c.writer.Flush()
}

// ReceiveRaw reads whatever is available off the wire, up to maxLen
// bytes, without decoding it against any template (SPEC_FULL.md §4 item
// 4, client_receives_binary) — unlike Receive, the caller doesn't know
// the exact message length ahead of time, so this is a single bounded
// read rather than a read-exactly-n loop.
func (c *Connection) ReceiveRaw(maxLen int, timeout time.Duration) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}
	buf := make([]byte, maxLen)
	n, err := c.reader.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("transport: connection %q: read: %w", c.alias, err)
	}
	return buf[:n], nil
}

// Receive reads exactly template.Protocol().HeaderLength() bytes, decodes
// enough of the header to learn the PDU's payload length, reads that
// many more bytes, and hands the whole buffer to template.Decode —
// exactly the collaborator contract spec.md §6 describes.
func (c *Connection) Receive(tmpl *message.Template, timeout time.Duration) (*message.Message, error) {
	proto := tmpl.Protocol()
	headerLen := proto.HeaderLength()

	c.mu.Lock()
	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}
	header := make([]byte, headerLen)
	if _, err := readFull(c.reader, header); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("transport: connection %q: read header: %w", c.alias, err)
	}

	payloadLen, err := tmpl.PayloadLength(header)
	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("transport: connection %q: %w", c.alias, err)
	}

	trailer := proto.TrailingHeaderLength()
	rest := make([]byte, payloadLen+trailer)
	if len(rest) > 0 {
		if _, err := readFull(c.reader, rest); err != nil {
			c.mu.Unlock()
			return nil, fmt.Errorf("transport: connection %q: read payload: %w", c.alias, err)
		}
	}
	c.mu.Unlock()

	raw := append(append([]byte{}, header...), rest...)
	msg, err := tmpl.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("transport: connection %q: %w", c.alias, err)
	}
	return msg, nil
}

// ResetStream discards any buffered-but-unread bytes, per
// SPEC_FULL.md §4 item 1 (reset_message_streams).
func (c *Connection) ResetStream() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reader.Reset(c.conn)
}

// Close closes the underlying connection.
func (c *Connection) Close() error {
	return c.conn.Close()
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
