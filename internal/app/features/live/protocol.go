// internal/app/features/live/protocol.go
package live

// Client-invocable operations on the realtime socket.
const (
	opJoinSession          = "join_session"
	opLeaveSession         = "leave_session"
	opGetParticipantCount  = "get_participant_count"
	opJoinUserGroup        = "join_user_group"
	opLeaveUserGroup       = "leave_user_group"
	opJoinRoleGroup        = "join_role_group"
	opMarkNotificationRead = "mark_notification_read"
)

// clientMessage is the envelope for every inbound message. Fields beyond Op
// are operation-specific; unknown ops and missing fields are silently
// ignored so a malformed client call never disrupts the connection.
type clientMessage struct {
	Op             string `json:"op"`
	SessionID      string `json:"session_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	Role           string `json:"role,omitempty"`
	NotificationID string `json:"notification_id,omitempty"`
}

// countPayload is the payload of participant_count_updated pushes.
type countPayload struct {
	Count     int    `json:"count"`
	SessionID string `json:"session_id,omitempty"`
}

// userPayload is the payload of student_joined / student_left pushes.
type userPayload struct {
	UserID string `json:"user_id"`
}
