// internal/app/features/live/ws.go
package live

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/hub"
	"github.com/dalemusser/coursehub/internal/app/system/realip"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// The session cookie is the auth boundary; cross-origin browser requests
// carry no valid cookie, so the upgrader itself accepts any origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS handles GET /live/ws. Identity is established once from the
// session cookie and never changes for the connection's lifetime.
// Unauthenticated sockets are accepted so public pages can observe
// participant counts, but every mutating operation no-ops for them.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity := hub.Identity{
		DeviceClass: deviceClass(r.UserAgent()),
		IP:          realip.FromRequest(r),
	}
	if u, ok := auth.CurrentUser(r); ok {
		identity.UserID = u.ID
		identity.Roles = []string{u.Role}
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := hub.NewConn(uuid.NewString(), identity, ws)
	h.Registry.Open(conn)
	h.Fanout.AutoSubscribe(conn)
	go conn.WriteLoop()

	h.Log.Info("realtime connection opened",
		zap.String("conn_id", conn.ID()),
		zap.String("user_id", identity.UserID),
		zap.String("device_class", identity.DeviceClass))

	defer func() {
		h.Controller.Disconnect(conn.ID())
		conn.Close()
		h.Log.Info("realtime connection closed",
			zap.String("conn_id", conn.ID()),
			zap.String("user_id", identity.UserID))
	}()

	// Messages on one connection are processed in arrival order; no ordering
	// is promised between different connections.
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			// A malformed client call must not disrupt the connection.
			continue
		}
		h.handleClientMessage(conn, msg)
	}
}

func (h *Handler) handleClientMessage(conn *hub.Conn, msg clientMessage) {
	switch msg.Op {
	case opJoinSession:
		h.Controller.JoinSession(conn, msg.SessionID)
	case opLeaveSession:
		h.Controller.LeaveSession(conn, msg.SessionID)
	case opGetParticipantCount:
		count := h.Controller.ParticipantCount(msg.SessionID)
		conn.Queue(hub.ServerEvent{
			Event:   hub.EventParticipantCountUpdated,
			Payload: countPayload{Count: count, SessionID: msg.SessionID},
		})
	case opJoinUserGroup:
		h.Fanout.JoinUserGroup(conn, msg.UserID)
	case opLeaveUserGroup:
		h.Fanout.LeaveUserGroup(conn, msg.UserID)
	case opJoinRoleGroup:
		h.Fanout.JoinRoleGroup(conn, msg.Role)
	case opMarkNotificationRead:
		h.Fanout.MarkRead(conn, msg.NotificationID)
	default:
		// Unknown operations are ignored, not errors.
	}
}
