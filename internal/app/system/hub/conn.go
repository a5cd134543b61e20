// internal/app/system/hub/conn.go

// Package hub is the in-memory realtime layer: it tracks live connections,
// organizes them into named groups, derives presence from group membership,
// and fans events out to group members. Everything here is process-local and
// non-durable; durability belongs to the stores.
package hub

import "sync"

// outboundBuffer is the per-connection send queue depth. A connection whose
// queue is full has its events dropped, never the sender blocked.
const outboundBuffer = 64

// Transport is the subset of *websocket.Conn the hub writes through.
// Tests substitute an in-memory implementation.
type Transport interface {
	WriteJSON(v any) error
	Close() error
}

// Identity is the immutable identity bound to a connection at registration
// time. UserID is empty for unauthenticated connections. DeviceClass and IP
// are audit metadata only.
type Identity struct {
	UserID      string
	Roles       []string
	DeviceClass string
	IP          string
}

// Authenticated reports whether the connection belongs to a signed-in user.
func (id Identity) Authenticated() bool {
	return id.UserID != ""
}

// Conn is an opaque handle for one live transport connection. It is created
// when the transport opens and closed exactly once when it goes away.
type Conn struct {
	id       string
	identity Identity
	t        Transport

	mu     sync.Mutex
	send   chan ServerEvent
	closed bool
}

// NewConn wraps a transport with a connection id and identity.
func NewConn(id string, identity Identity, t Transport) *Conn {
	return &Conn{
		id:       id,
		identity: identity,
		t:        t,
		send:     make(chan ServerEvent, outboundBuffer),
	}
}

// ID returns the process-lifetime connection identifier.
func (c *Conn) ID() string { return c.id }

// Identity returns the identity snapshot taken at connect time.
func (c *Conn) Identity() Identity { return c.identity }

// Queue enqueues an event for delivery. It never blocks: it reports false
// when the connection is closed or its outbound buffer is full, and the
// event is dropped.
func (c *Conn) Queue(ev ServerEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// WriteLoop drains the outbound queue to the transport. It returns when the
// connection is closed or the first write fails. Run it in its own goroutine;
// it is the only writer on the transport, which keeps delivery per connection
// in first-queued order.
func (c *Conn) WriteLoop() {
	for ev := range c.send {
		if err := c.t.WriteJSON(ev); err != nil {
			return
		}
	}
}

// Close shuts the connection down. Safe to call more than once and
// concurrently with Queue.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.t.Close()
}
