// internal/domain/models/attendance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attendance end reasons.
const (
	AttendanceEndLeave      = "leave"      // explicit leave or clean disconnect
	AttendanceEndReconciled = "reconciled" // closed by the sweeper after an unclean exit
)

// AttendanceRecord is the durable trace of a user's presence in a live
// session. The realtime layer writes these best-effort; a missing or late
// record never blocks a join or leave.
type AttendanceRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`

	JoinedAt time.Time  `bson:"joined_at" json:"joined_at"`
	LeftAt   *time.Time `bson:"left_at,omitempty" json:"left_at,omitempty"`

	// Audit context captured at connect time.
	DeviceClass string `bson:"device_class,omitempty" json:"device_class,omitempty"`
	IP          string `bson:"ip,omitempty" json:"ip,omitempty"`

	EndReason    string `bson:"end_reason,omitempty" json:"end_reason,omitempty"`
	DurationSecs int64  `bson:"duration_secs,omitempty" json:"duration_secs,omitempty"`
}
