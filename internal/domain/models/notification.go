// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds (classification shown to clients).
const (
	NotificationInfo     = "info"
	NotificationWarning  = "warning"
	NotificationGrade    = "grade"
	NotificationDeadline = "deadline"
)

// Notification priorities.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Notification is an immutable event produced by the platform and handed
// to the realtime layer for delivery. Exactly one of UserID or Role is set:
// user-targeted notifications are persisted for unread tracking, role-targeted
// ones are broadcast only.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Role      string              `bson:"role,omitempty" json:"role,omitempty"`
	Title     string              `bson:"title" json:"title"`
	Body      string              `bson:"body" json:"body"`
	Kind      string              `bson:"kind" json:"kind"`
	ActionURL string              `bson:"action_url,omitempty" json:"action_url,omitempty"`
	Priority  string              `bson:"priority" json:"priority"`
	Read      bool                `bson:"read" json:"read"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	// CreatedKey is CreatedAt rendered as a sortable string; it is the
	// keyset cursor field for the notification feed.
	CreatedKey string `bson:"created_key,omitempty" json:"-"`
}
