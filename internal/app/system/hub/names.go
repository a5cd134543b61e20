// internal/app/system/hub/names.go
package hub

import "strings"

// Group name prefixes. The three group kinds differ only by naming
// convention; the membership store does not care.
const (
	sessionPrefix = "session:"
	userPrefix    = "user:"
	rolePrefix    = "role:"
)

// SessionGroup returns the group name for a live session.
func SessionGroup(sessionID string) string { return sessionPrefix + sessionID }

// UserGroup returns the per-user notification group name.
func UserGroup(userID string) string { return userPrefix + userID }

// RoleGroup returns the per-role broadcast group name.
func RoleGroup(role string) string { return rolePrefix + role }

// SessionID extracts the session identifier from a session group name.
// ok is false for user, role, or malformed group names.
func SessionID(group string) (string, bool) {
	id, ok := strings.CutPrefix(group, sessionPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
