// internal/app/system/hub/groups.go
package hub

import "sync"

// Groups maps group names to the connections subscribed to them. A forward
// index (group -> connection ids) and a reverse index (connection id ->
// groups) are mutated symmetrically under one mutex, so disconnect cleanup
// never scans every group. Empty sets are pruned; an empty group and an
// absent group are the same thing.
type Groups struct {
	mu      sync.Mutex
	byGroup map[string]map[string]struct{}
	byConn  map[string]map[string]struct{}
}

// NewGroups returns an empty membership store.
func NewGroups() *Groups {
	return &Groups{
		byGroup: make(map[string]map[string]struct{}),
		byConn:  make(map[string]map[string]struct{}),
	}
}

// Join adds a connection to a group. Idempotent; reports whether the
// membership was newly added.
func (g *Groups) Join(group, connID string) bool {
	if group == "" || connID == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.byGroup[group][connID]; ok {
		return false
	}
	if g.byGroup[group] == nil {
		g.byGroup[group] = make(map[string]struct{})
	}
	g.byGroup[group][connID] = struct{}{}
	if g.byConn[connID] == nil {
		g.byConn[connID] = make(map[string]struct{})
	}
	g.byConn[connID][group] = struct{}{}
	return true
}

// Leave removes a connection from a group. Idempotent; reports whether a
// membership was actually removed.
func (g *Groups) Leave(group, connID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	members, ok := g.byGroup[group]
	if !ok {
		return false
	}
	if _, ok := members[connID]; !ok {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(g.byGroup, group)
	}
	if groups := g.byConn[connID]; groups != nil {
		delete(groups, group)
		if len(groups) == 0 {
			delete(g.byConn, connID)
		}
	}
	return true
}

// Members returns a snapshot copy of the connection ids currently in the
// group. Safe to iterate while memberships change concurrently.
func (g *Groups) Members(group string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	members := g.byGroup[group]
	if len(members) == 0 {
		return nil
	}
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// GroupsContaining returns a snapshot copy of the groups a connection
// belongs to. Used for disconnect cleanup.
func (g *Groups) GroupsContaining(connID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	groups := g.byConn[connID]
	if len(groups) == 0 {
		return nil
	}
	out := make([]string, 0, len(groups))
	for name := range groups {
		out = append(out, name)
	}
	return out
}

// Contains reports whether the connection is currently in the group.
func (g *Groups) Contains(group, connID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.byGroup[group][connID]
	return ok
}
