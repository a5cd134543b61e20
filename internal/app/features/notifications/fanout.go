// internal/app/features/notifications/fanout.go

// Package notifications delivers notification events to the right subset of
// live connections: per-user groups for targeted notifications, per-role
// groups for broadcasts. The hub retains nothing after a delivery attempt;
// the store is the producing collaborator's durable side.
package notifications

import (
	"context"

	"github.com/dalemusser/coursehub/internal/app/system/hub"
	"github.com/dalemusser/coursehub/internal/app/system/timeouts"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the persistence surface the fanout needs. Failures here are
// logged and swallowed; delivery to live connections proceeds regardless.
type Store interface {
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error
}

// Fanout orchestrates per-user and per-role notification delivery.
type Fanout struct {
	groups   *hub.Groups
	dispatch *hub.Dispatcher
	store    Store
	log      *zap.Logger
}

// NewFanout constructs a Fanout over the hub's membership store and
// dispatcher.
func NewFanout(groups *hub.Groups, dispatch *hub.Dispatcher, store Store, logger *zap.Logger) *Fanout {
	return &Fanout{groups: groups, dispatch: dispatch, store: store, log: logger}
}

// AutoSubscribe joins a freshly opened connection to its owner's user group
// (when authenticated) and to one role group per role held. Called once at
// connect time; these memberships are removed with everything else on
// disconnect.
func (f *Fanout) AutoSubscribe(c *hub.Conn) {
	identity := c.Identity()
	if identity.Authenticated() {
		f.groups.Join(hub.UserGroup(identity.UserID), c.ID())
	}
	for _, role := range identity.Roles {
		f.groups.Join(hub.RoleGroup(role), c.ID())
	}
}

// Deliver pushes a notification to every live connection of the target user
// and follows it with the user's current unread count. Best-effort: offline
// users simply miss the push and see the store next time they load.
func (f *Fanout) Deliver(ctx context.Context, n models.Notification, targetUserID string) {
	if targetUserID == "" {
		return
	}
	group := hub.UserGroup(targetUserID)
	f.dispatch.Send(group, hub.EventReceiveNotification, n)
	f.pushUnreadCount(ctx, group, targetUserID)
}

// DeliverToRole pushes a notification to every live connection holding the
// role, then tells those clients to refresh their notification lists.
func (f *Fanout) DeliverToRole(n models.Notification, role string) {
	if role == "" {
		return
	}
	group := hub.RoleGroup(role)
	f.dispatch.Send(group, hub.EventReceiveNotification, n)
	f.dispatch.Send(group, hub.EventRefreshNotifications, nil)
}

// MarkRead records that the user read a notification and re-broadcasts a
// read event to the user's other live connections, so a badge dismissed in
// one tab disappears in the others. Unauthenticated callers and malformed
// ids are silent no-ops.
func (f *Fanout) MarkRead(c *hub.Conn, notificationID string) {
	identity := c.Identity()
	if !identity.Authenticated() || notificationID == "" {
		return
	}

	userOID, err := primitive.ObjectIDFromHex(identity.UserID)
	notifOID, err2 := primitive.ObjectIDFromHex(notificationID)
	if err == nil && err2 == nil && f.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		defer cancel()
		if err := f.store.MarkRead(ctx, userOID, notifOID); err != nil {
			f.log.Warn("mark-read persistence failed",
				zap.String("user_id", identity.UserID),
				zap.String("notification_id", notificationID),
				zap.Error(err))
		}
	}

	group := hub.UserGroup(identity.UserID)
	f.dispatch.SendExcept(group, c.ID(), hub.EventNotificationRead,
		map[string]string{"notification_id": notificationID})
	f.pushUnreadCount(context.Background(), group, identity.UserID)
}

// JoinUserGroup explicitly (re)subscribes a connection to a user's
// notification group. Only the owner may subscribe; anything else is a
// silent no-op.
func (f *Fanout) JoinUserGroup(c *hub.Conn, userID string) {
	identity := c.Identity()
	if userID == "" || userID != identity.UserID {
		return
	}
	f.groups.Join(hub.UserGroup(userID), c.ID())
}

// LeaveUserGroup removes a connection from a user's notification group.
func (f *Fanout) LeaveUserGroup(c *hub.Conn, userID string) {
	if userID == "" || userID != c.Identity().UserID {
		return
	}
	f.groups.Leave(hub.UserGroup(userID), c.ID())
}

// JoinRoleGroup subscribes a connection to a role broadcast group. The
// caller must hold the role; unknown or unheld roles are silent no-ops.
func (f *Fanout) JoinRoleGroup(c *hub.Conn, role string) {
	if !models.ValidRole(role) {
		return
	}
	for _, held := range c.Identity().Roles {
		if held == role {
			f.groups.Join(hub.RoleGroup(role), c.ID())
			return
		}
	}
}

// pushUnreadCount sends the user's current unread count to their group.
// A store failure only costs the badge update.
func (f *Fanout) pushUnreadCount(ctx context.Context, group, userID string) {
	if f.store == nil {
		return
	}
	userOID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	count, err := f.store.CountUnread(ctx, userOID)
	if err != nil {
		f.log.Warn("unread count lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	f.dispatch.Send(group, hub.EventUpdateUnreadCount, map[string]int64{"count": count})
}
