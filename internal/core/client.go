// Package core holds the shared state of the relay: the session registry,
// the room directory, and the per-connection command dispatcher. Transports
// own the sockets; core owns who is online and where messages go.
package core

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultQueueSize is the outbound line buffer per connection.
const DefaultQueueSize = 64

// Client is one live connection as seen by the core. The owning transport
// reads commands from the socket and drains Outbound to it; everything else
// holds a reference only and talks to the client through TrySend.
type Client struct {
	ID   string
	Addr string

	mu     sync.Mutex
	out    chan string
	closed bool
}

// NewClient constructs a client for a connection from the given peer address.
func NewClient(addr string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Client{
		ID:   uuid.NewString(),
		Addr: addr,
		out:  make(chan string, queueSize),
	}
}

// TrySend queues a line for delivery without blocking. It reports false when
// the client is closed or its queue is full; the line is dropped in that case
// so one stalled peer can never hold up a fan-out.
func (c *Client) TrySend(line string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.out <- line:
		return true
	default:
		return false
	}
}

// Close marks the client closed and closes the outbound queue. The write
// pump drains whatever is already queued before exiting, so replies emitted
// just before a close (LOGIN_FAIL in particular) still reach the peer.
// Close is idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Outbound exposes the queued lines for the transport's write pump.
func (c *Client) Outbound() <-chan string {
	return c.out
}
