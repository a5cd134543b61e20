// internal/app/system/hub/dispatch.go
package hub

import "go.uber.org/zap"

// Dispatcher fans events out to the live members of a group. Delivery is
// best-effort and fire-and-forget per connection: a dead or slow recipient
// is skipped and never surfaces an error to the caller. The member snapshot
// is taken before any delivery, so joins and leaves that land mid-broadcast
// are not reflected in that call.
type Dispatcher struct {
	groups   *Groups
	registry *Registry
	log      *zap.Logger
}

// NewDispatcher builds a dispatcher over the membership store and registry.
func NewDispatcher(groups *Groups, registry *Registry, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{groups: groups, registry: registry, log: logger}
}

// Send delivers the event to every live member of the group at call time.
func (d *Dispatcher) Send(group, event string, payload any) {
	d.send(group, "", event, payload)
}

// SendExcept delivers to every live member of the group except one
// connection, typically the one that caused the event.
func (d *Dispatcher) SendExcept(group, exceptConnID, event string, payload any) {
	d.send(group, exceptConnID, event, payload)
}

func (d *Dispatcher) send(group, exceptConnID, event string, payload any) {
	ev := ServerEvent{Event: event, Payload: payload}
	for _, connID := range d.groups.Members(group) {
		if connID == exceptConnID {
			continue
		}
		c, ok := d.registry.Get(connID)
		if !ok {
			// Disconnected between snapshot and delivery.
			continue
		}
		if !c.Queue(ev) {
			d.log.Debug("dropped event for closed or congested connection",
				zap.String("group", group),
				zap.String("event", event),
				zap.String("conn_id", connID))
		}
	}
}
