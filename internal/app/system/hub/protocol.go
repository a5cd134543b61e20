// internal/app/system/hub/protocol.go
package hub

// Server-initiated push event names.
const (
	EventParticipantCountUpdated = "participant_count_updated"
	EventStudentJoined           = "student_joined"
	EventStudentLeft             = "student_left"
	EventReceiveNotification     = "receive_notification"
	EventUpdateUnreadCount       = "update_unread_count"
	EventNotificationRead        = "notification_read"
	EventRefreshNotifications    = "refresh_notifications"
)

// ServerEvent is the envelope for every server push.
type ServerEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}
