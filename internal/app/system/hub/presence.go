// internal/app/system/hub/presence.go
package hub

// Presence derives participant counts and user-level joined/left transitions
// from group membership. A participant is a distinct user, not a connection:
// one user with two tabs open counts once, and is only "left" when the last
// of their connections leaves the group. Unauthenticated connections never
// count as participants.
//
// OnJoin and OnLeave derive their transition results from the membership
// state at call time. The caller must perform the membership mutation and
// the matching computation as one atomic step; concurrent mutations in
// between would make two callers agree (or disagree) on the same
// transition.
type Presence struct {
	groups   *Groups
	registry *Registry
}

// NewPresence builds a tracker over the given membership store and registry.
func NewPresence(groups *Groups, registry *Registry) *Presence {
	return &Presence{groups: groups, registry: registry}
}

// ParticipantCount returns the number of distinct users with at least one
// live connection in the group. Unknown or empty groups report 0.
func (p *Presence) ParticipantCount(group string) int {
	return len(p.participants(group))
}

// UserPresent reports whether the user has at least one live connection in
// the group.
func (p *Presence) UserPresent(group, userID string) bool {
	if userID == "" {
		return false
	}
	_, ok := p.participants(group)[userID]
	return ok
}

// OnJoin is called after a membership add commits. It returns the resulting
// participant count and whether this join was a user-level transition (the
// user's first live connection in the group). A second tab from an
// already-present user is not a transition.
func (p *Presence) OnJoin(group string, identity Identity) (count int, joined bool) {
	users := p.participants(group)
	if !identity.Authenticated() {
		return len(users), false
	}
	// The joining connection is already a member, so a transition means the
	// user is present through exactly one connection: this one.
	return len(users), p.connectionsInGroup(group, identity.UserID) == 1
}

// OnLeave is called after a membership removal commits, with the identity of
// the departed connection. It returns the resulting participant count and
// whether the user fully left the group (no remaining connections).
func (p *Presence) OnLeave(group string, identity Identity) (count int, left bool) {
	users := p.participants(group)
	if !identity.Authenticated() {
		return len(users), false
	}
	_, stillPresent := users[identity.UserID]
	return len(users), !stillPresent
}

// participants resolves the group's member connections to distinct user ids
// through the registry. Connections that vanished from the registry between
// the snapshot and the lookup are simply skipped.
func (p *Presence) participants(group string) map[string]struct{} {
	users := make(map[string]struct{})
	for _, connID := range p.groups.Members(group) {
		c, ok := p.registry.Get(connID)
		if !ok {
			continue
		}
		if id := c.Identity(); id.Authenticated() {
			users[id.UserID] = struct{}{}
		}
	}
	return users
}

func (p *Presence) connectionsInGroup(group, userID string) int {
	n := 0
	for _, connID := range p.groups.Members(group) {
		c, ok := p.registry.Get(connID)
		if !ok {
			continue
		}
		if c.Identity().UserID == userID {
			n++
		}
	}
	return n
}
