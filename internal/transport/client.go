package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client is a dialed UDP/TCP connection, the "open clients" half of
// spec.md §1's out-of-scope transport layer. SPEC_FULL.md's domain stack
// gives it a `google/uuid`-generated alias when the caller doesn't name
// one.
type Client struct {
	*Connection
}

// Dial opens a client connection over network ("tcp" or "udp") to
// address, with an optional alias (a uuid is generated when alias is
// empty).
func Dial(network, address, alias string, timeout time.Duration, logger *zap.SugaredLogger) (*Client, error) {
	conn, err := net.DialTimeout(network, address, timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s %s: %w", network, address, err)
	}
	if alias == "" {
		alias = uuid.NewString()
	}
	return &Client{Connection: newConnection(conn, alias, logger)}, nil
}

// SendRaw bypasses the message template entirely and writes data as-is
// (SPEC_FULL.md §4 item 4, client_sends_binary). Send (embedded from
// Connection) serves both templated sends (caller passes already-encoded
// bytes from Message.Raw()) and this raw path; the split exists only to
// name the two call sites the spec distinguishes.
func (c *Client) SendRaw(data []byte) error { return c.Send(data) }
