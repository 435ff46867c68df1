package transport

import (
	"fmt"
	"net"
	"sync"

	"hublink/internal/message"
)

// Conn is one logical peer connection. Writes are serialized; each message
// becomes a single newline-terminated JSON frame.
type Conn struct {
	mu  sync.Mutex
	raw net.Conn
}

func newConn(raw net.Conn) *Conn {
	return &Conn{raw: raw}
}

// Send marshals and writes one frame.
func (c *Conn) Send(msg message.Message) error {
	payload, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Type, err)
	}
	payload = append(payload, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.raw == nil {
		return fmt.Errorf("connection closed")
	}
	if _, err := c.raw.Write(payload); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type, err)
	}
	return nil
}

// RemoteAddr reports the peer address for logging.
func (c *Conn) RemoteAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.raw == nil {
		return ""
	}
	return c.raw.RemoteAddr().String()
}

// Close shuts the underlying socket. Idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.raw == nil {
		return nil
	}
	err := c.raw.Close()
	c.raw = nil
	return err
}
