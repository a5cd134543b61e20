// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles recognized by CourseHub. A user holds exactly one primary role;
// the realtime layer treats roles as a set so additional roles can be
// granted later without changing connection identity handling.
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// ValidRole reports whether role is one of the recognized role names.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	}
	return false
}

// User represents admins, instructors, and students.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	LoginID      string             `bson:"login_id" json:"login_id"` // what the user types to sign in (email)
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"`                         // admin | instructor | student
	Status       string             `bson:"status,omitempty" json:"status,omitempty"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Roles returns the user's role set as seen by the realtime hub.
func (u User) Roles() []string {
	if u.Role == "" {
		return nil
	}
	return []string{u.Role}
}
