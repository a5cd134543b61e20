package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserCtxAnonymous(t *testing.T) {
	role, name, id, ok := authz.UserCtx(httptest.NewRequest("GET", "/", nil))
	if ok {
		t.Fatal("anonymous request should not report ok")
	}
	if role != "visitor" || name != "" || id != primitive.NilObjectID {
		t.Errorf("got role=%q name=%q id=%v", role, name, id)
	}
}

func TestUserCtxMalformedID(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil),
		&auth.SessionUser{ID: "not-an-object-id", Role: "admin"})
	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("malformed user id should fail closed")
	}
}

func TestRolePredicates(t *testing.T) {
	oid := primitive.NewObjectID().Hex()
	admin := auth.WithTestUser(httptest.NewRequest("GET", "/", nil),
		&auth.SessionUser{ID: oid, Role: "admin"})
	student := auth.WithTestUser(httptest.NewRequest("GET", "/", nil),
		&auth.SessionUser{ID: oid, Role: "student"})

	if !authz.IsAdmin(admin) || authz.IsAdmin(student) {
		t.Error("IsAdmin misclassified")
	}
	if !authz.IsStudent(student) || authz.IsStudent(admin) {
		t.Error("IsStudent misclassified")
	}
	if !authz.HasAnyRole(admin, "instructor", "admin") {
		t.Error("HasAnyRole should match admin")
	}
	if authz.HasAnyRole(student, "instructor", "admin") {
		t.Error("HasAnyRole should not match student")
	}
}
