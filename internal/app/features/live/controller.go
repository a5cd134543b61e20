// internal/app/features/live/controller.go

// Package live is the realtime surface for live course sessions: the
// WebSocket endpoint connections attach to, and the lifecycle controller
// that keeps session group membership, presence counts, and attendance
// recording consistent across joins, leaves, and unclean disconnects.
package live

import (
	"context"
	"sync"

	"github.com/dalemusser/coursehub/internal/app/system/hub"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Recorder is the external session-recording collaborator. Calls are
// best-effort and fire-and-forget: the realtime state transition completes
// regardless of the recorder's outcome, and failures are logged only.
type Recorder interface {
	RecordJoin(ctx context.Context, sessionID string, userID primitive.ObjectID, deviceClass, ip string) error
	RecordLeave(ctx context.Context, sessionID string, userID primitive.ObjectID) error
}

// Controller orchestrates join/leave/disconnect for live-session groups.
// For any (session, connection) pair the terminal state is always absence;
// nothing is retained once a pair is absent.
type Controller struct {
	registry *hub.Registry
	groups   *hub.Groups
	presence *hub.Presence
	dispatch *hub.Dispatcher
	recorder Recorder
	log      *zap.Logger

	// mu spans each membership mutation and the user-level transition
	// computed from it. The pair must be atomic: two tabs of one user
	// joining or leaving concurrently would otherwise both (or neither)
	// observe the transition, and the joined/left broadcasts would
	// duplicate or vanish.
	mu sync.Mutex
}

// NewController wires the lifecycle controller to the hub and the recorder.
func NewController(registry *hub.Registry, groups *hub.Groups, presence *hub.Presence,
	dispatch *hub.Dispatcher, recorder Recorder, logger *zap.Logger) *Controller {
	return &Controller{
		registry: registry,
		groups:   groups,
		presence: presence,
		dispatch: dispatch,
		recorder: recorder,
		log:      logger,
	}
}

// JoinSession adds the connection to the session group, records the join
// best-effort, and broadcasts the updated presence. Unauthenticated callers
// and empty session ids are silent no-ops, as is joining a session the
// connection is already in.
func (c *Controller) JoinSession(conn *hub.Conn, sessionID string) {
	identity := conn.Identity()
	if !identity.Authenticated() || sessionID == "" {
		return
	}

	group := hub.SessionGroup(sessionID)
	c.mu.Lock()
	added := c.groups.Join(group, conn.ID())
	var count int
	var joined bool
	if added {
		count, joined = c.presence.OnJoin(group, identity)
	}
	c.mu.Unlock()
	if !added {
		return
	}

	c.recordJoin(sessionID, identity)

	c.dispatch.Send(group, hub.EventParticipantCountUpdated, countPayload{Count: count, SessionID: sessionID})
	if joined {
		c.dispatch.Send(group, hub.EventStudentJoined, userPayload{UserID: identity.UserID})
	}
}

// LeaveSession removes the connection from the session group, records the
// leave best-effort, and broadcasts the updated presence. A leave without a
// prior join is a silent no-op.
func (c *Controller) LeaveSession(conn *hub.Conn, sessionID string) {
	identity := conn.Identity()
	if sessionID == "" {
		return
	}

	group := hub.SessionGroup(sessionID)
	c.mu.Lock()
	removed := c.groups.Leave(group, conn.ID())
	var count int
	var left bool
	if removed {
		count, left = c.presence.OnLeave(group, identity)
	}
	c.mu.Unlock()
	if !removed {
		return
	}

	c.finishLeave(group, sessionID, identity, count, left)
}

// Disconnect reconciles all group memberships of a closed connection: every
// session group gets the same removal, recording, and broadcast path as an
// explicit leave; user and role groups are dropped silently. Idempotent —
// a second Disconnect for the same id finds nothing to do.
func (c *Controller) Disconnect(connID string) {
	identity, ok := c.registry.Close(connID)
	if !ok {
		return
	}

	for _, group := range c.groups.GroupsContaining(connID) {
		sessionID, isSession := hub.SessionID(group)
		c.mu.Lock()
		removed := c.groups.Leave(group, connID)
		var count int
		var left bool
		if removed && isSession {
			count, left = c.presence.OnLeave(group, identity)
		}
		c.mu.Unlock()
		if !removed || !isSession {
			continue
		}
		c.finishLeave(group, sessionID, identity, count, left)
	}
}

// ParticipantCount returns the current distinct-user count for a session.
// Unknown sessions report 0.
func (c *Controller) ParticipantCount(sessionID string) int {
	return c.presence.ParticipantCount(hub.SessionGroup(sessionID))
}

// finishLeave runs the recording and broadcast side of a session-group
// removal whose transition was already decided under mu.
func (c *Controller) finishLeave(group, sessionID string, identity hub.Identity, count int, left bool) {
	if identity.Authenticated() {
		c.recordLeave(sessionID, identity)
	}

	c.dispatch.Send(group, hub.EventParticipantCountUpdated, countPayload{Count: count, SessionID: sessionID})
	if left {
		c.dispatch.Send(group, hub.EventStudentLeft, userPayload{UserID: identity.UserID})
	}
}

// recordJoin hands the join to the recorder in its own goroutine with its
// own error boundary. No hub lock is held; a recording outage never blocks
// the live session.
func (c *Controller) recordJoin(sessionID string, identity hub.Identity) {
	userOID, err := primitive.ObjectIDFromHex(identity.UserID)
	if err != nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Record())
		defer cancel()
		if err := c.recorder.RecordJoin(ctx, sessionID, userOID, identity.DeviceClass, identity.IP); err != nil {
			c.log.Warn("join recording failed",
				zap.String("session_id", sessionID),
				zap.String("user_id", identity.UserID),
				zap.Error(err))
		}
	}()
}

func (c *Controller) recordLeave(sessionID string, identity hub.Identity) {
	userOID, err := primitive.ObjectIDFromHex(identity.UserID)
	if err != nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Record())
		defer cancel()
		if err := c.recorder.RecordLeave(ctx, sessionID, userOID); err != nil {
			c.log.Warn("leave recording failed",
				zap.String("session_id", sessionID),
				zap.String("user_id", identity.UserID),
				zap.Error(err))
		}
	}()
}
