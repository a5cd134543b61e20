// internal/app/system/hub/registry.go
package hub

import "sync"

// Registry tracks every live connection and the identity bound to it.
// It does no broadcasting of its own; dependents reconcile on Close.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewRegistry returns an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// Open registers a connection. Exactly one Open per connection.
func (r *Registry) Open(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = c
}

// Close removes a connection and returns the identity that was bound to it,
// so dependents can reconcile group memberships. Unknown ids are a no-op.
func (r *Registry) Close(connID string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return Identity{}, false
	}
	delete(r.conns, connID)
	return c.Identity(), true
}

// Get returns the live connection for an id.
func (r *Registry) Get(connID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	return c, ok
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
