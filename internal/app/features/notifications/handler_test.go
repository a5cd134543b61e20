// internal/app/features/notifications/handler_test.go
package notifications_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/coursehub/internal/app/features/notifications"
	notifstore "github.com/dalemusser/coursehub/internal/app/store/notifications"
	"github.com/dalemusser/coursehub/internal/app/system/hub"
	"github.com/dalemusser/coursehub/internal/domain/models"
	"github.com/dalemusser/coursehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*notifications.Handler, *notifstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := notifstore.New(db)

	groups := hub.NewGroups()
	registry := hub.NewRegistry()
	dispatch := hub.NewDispatcher(groups, registry, zap.NewNop())
	fanout := notifications.NewFanout(groups, dispatch, store, zap.NewNop())

	return notifications.NewHandler(store, fanout, zap.NewNop()), store
}

func publishBody(t *testing.T, fields map[string]any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(raw)
}

func TestPublish_UserTargetedPersistsAndReturns201(t *testing.T) {
	h, store := newHandler(t)
	target := testutil.StudentUser()

	req := httptest.NewRequest(http.MethodPost, "/notifications", publishBody(t, map[string]any{
		"user_id": target.ID,
		"title":   "Assignment graded",
		"body":    "Your essay received a B+.",
		"kind":    models.NotificationGrade,
	}))
	req = testutil.WithUser(req, testutil.InstructorUser())
	rec := httptest.NewRecorder()

	h.Publish(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var created models.Notification
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID.IsZero() {
		t.Fatal("created notification has no id")
	}
	if created.Read {
		t.Fatal("created notification already read")
	}

	targetOID, _ := primitive.ObjectIDFromHex(target.ID)
	count, err := store.CountUnread(req.Context(), targetOID)
	if err != nil {
		t.Fatalf("count unread: %v", err)
	}
	if count != 1 {
		t.Fatalf("unread count = %d, want 1", count)
	}
}

func TestPublish_RoleTargetedIsNotPersisted(t *testing.T) {
	h, _ := newHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/notifications", publishBody(t, map[string]any{
		"role":  models.RoleStudent,
		"title": "Maintenance window",
		"body":  "The platform goes down at midnight.",
	}))
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := httptest.NewRecorder()

	h.Publish(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
}

func TestPublish_SanitizesMarkup(t *testing.T) {
	h, _ := newHandler(t)
	target := testutil.StudentUser()

	req := httptest.NewRequest(http.MethodPost, "/notifications", publishBody(t, map[string]any{
		"user_id": target.ID,
		"title":   `<script>alert("x")</script>Quiz posted`,
		"body":    `Due <b>Friday</b>`,
	}))
	req = testutil.WithUser(req, testutil.InstructorUser())
	rec := httptest.NewRecorder()

	h.Publish(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var created models.Notification
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if strings.Contains(created.Title, "<script>") || created.Title != "Quiz posted" {
		t.Fatalf("title not sanitized: %q", created.Title)
	}
	if strings.Contains(created.Body, "<b>") {
		t.Fatalf("body not sanitized: %q", created.Body)
	}
}

func TestPublish_RejectsAmbiguousTarget(t *testing.T) {
	h, _ := newHandler(t)

	cases := []struct {
		name   string
		fields map[string]any
	}{
		{"both set", map[string]any{"user_id": primitive.NewObjectID().Hex(), "role": models.RoleStudent, "title": "x"}},
		{"neither set", map[string]any{"title": "x"}},
		{"empty title", map[string]any{"role": models.RoleStudent, "title": "  "}},
		{"unknown role", map[string]any{"role": "superuser", "title": "x"}},
		{"bad user id", map[string]any{"user_id": "not-hex", "title": "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/notifications", publishBody(t, tc.fields))
			req = testutil.WithUser(req, testutil.AdminUser())
			rec := httptest.NewRecorder()

			h.Publish(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestUnreadCountAndList(t *testing.T) {
	h, store := newHandler(t)
	user := testutil.StudentUser()
	userOID, _ := primitive.ObjectIDFromHex(user.ID)

	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	for i := 0; i < 3; i++ {
		if _, err := store.Create(seed.Context(), models.Notification{
			UserID: &userOID,
			Title:  "Seeded",
			Kind:   models.NotificationInfo,
		}); err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}

	req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/notifications/unread", nil), user)
	rec := httptest.NewRecorder()
	h.UnreadCount(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unread status = %d, want 200", rec.Code)
	}
	var unread map[string]int64
	if err := json.NewDecoder(rec.Body).Decode(&unread); err != nil {
		t.Fatalf("decode unread: %v", err)
	}
	if unread["count"] != 3 {
		t.Fatalf("unread count = %d, want 3", unread["count"])
	}

	req = testutil.WithUser(httptest.NewRequest(http.MethodGet, "/notifications", nil), user)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var page struct {
		Items   []models.Notification `json:"items"`
		HasNext bool                  `json:"has_next"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(page.Items) != 3 {
		t.Fatalf("list len = %d, want 3", len(page.Items))
	}
	if page.HasNext {
		t.Fatal("has_next true with a single short page")
	}
}

func TestListAndUnread_RequireIdentity(t *testing.T) {
	h, _ := newHandler(t)

	rec := httptest.NewRecorder()
	h.UnreadCount(rec, httptest.NewRequest(http.MethodGet, "/notifications/unread", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unread status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("list status = %d, want 401", rec.Code)
	}
}

func TestRoutes_PublishRequiresStaffRole(t *testing.T) {
	h, _ := newHandler(t)
	router := notifications.Routes(h)

	body := publishBody(t, map[string]any{"role": models.RoleStudent, "title": "x"})
	req := testutil.WithUser(httptest.NewRequest(http.MethodPost, "/", body), testutil.StudentUser())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student publish status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unread", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous unread status = %d, want 401", rec.Code)
	}
}
