// internal/app/features/live/ws_test.go
package live_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/coursehub/internal/app/features/live"
	"github.com/dalemusser/coursehub/internal/app/features/notifications"
	"github.com/dalemusser/coursehub/internal/app/system/auth"
	"github.com/dalemusser/coursehub/internal/app/system/hub"
	"github.com/dalemusser/coursehub/internal/domain/models"
)

// wsStore satisfies the fanout's store dependency with fixed unread counts.
type wsStore struct{}

func (wsStore) CountUnread(context.Context, primitive.ObjectID) (int64, error) { return 3, nil }
func (wsStore) MarkRead(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}

type wsEnv struct {
	srv      *httptest.Server
	sm       *auth.SessionManager
	ctrl     *live.Controller
	recorder *fakeRecorder
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()

	registry := hub.NewRegistry()
	groups := hub.NewGroups()
	presence := hub.NewPresence(groups, registry)
	dispatch := hub.NewDispatcher(groups, registry, zap.NewNop())
	recorder := newFakeRecorder()
	ctrl := live.NewController(registry, groups, presence, dispatch, recorder, zap.NewNop())
	fanout := notifications.NewFanout(groups, dispatch, wsStore{}, zap.NewNop())
	handler := live.NewHandler(registry, ctrl, fanout, zap.NewNop())

	sm, err := auth.NewSessionManager(strings.Repeat("k", 32), "coursehub_test_session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("new session manager: %v", err)
	}

	r := chi.NewRouter()
	r.Use(sm.LoadSessionUser)
	r.Mount("/live", live.Routes(handler))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &wsEnv{srv: srv, sm: sm, ctrl: ctrl, recorder: recorder}
}

// signInCookie runs a sign-in through the session manager and returns the
// resulting cookie for the websocket dial.
func (e *wsEnv) signInCookie(t *testing.T, u auth.SessionUser) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := e.sm.SignIn(rec, req, u); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("sign in set no cookie")
	}
	return cookies[0]
}

func (e *wsEnv) dial(t *testing.T, cookie *http.Cookie) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/live/ws"
	header := http.Header{}
	if cookie != nil {
		header.Set("Cookie", cookie.Name+"="+cookie.Value)
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type serverEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// readEvent reads frames until one with the given name arrives.
func readEvent(t *testing.T, conn *websocket.Conn, event string) serverEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var ev serverEvent
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read %q: %v", event, err)
		}
		if ev.Event == event {
			return ev
		}
	}
}

func sendOp(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["op"], err)
	}
}

func TestServeWS_JoinSessionOverSocket(t *testing.T) {
	env := newWSEnv(t)
	userID := primitive.NewObjectID().Hex()
	cookie := env.signInCookie(t, auth.SessionUser{ID: userID, Name: "Ada", Role: models.RoleStudent})
	conn := env.dial(t, cookie)

	sendOp(t, conn, map[string]any{"op": "join_session", "session_id": "algebra-101"})

	ev := readEvent(t, conn, hub.EventParticipantCountUpdated)
	var count struct {
		Count     int    `json:"count"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(ev.Payload, &count); err != nil {
		t.Fatalf("decode count payload: %v", err)
	}
	if count.Count != 1 || count.SessionID != "algebra-101" {
		t.Fatalf("count payload = %+v", count)
	}

	ev = readEvent(t, conn, hub.EventStudentJoined)
	var joined struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(ev.Payload, &joined); err != nil {
		t.Fatalf("decode joined payload: %v", err)
	}
	if joined.UserID != userID {
		t.Fatalf("joined user = %q, want %q", joined.UserID, userID)
	}

	call := waitCall(t, env.recorder.joins)
	if call.sessionID != "algebra-101" || call.userID.Hex() != userID {
		t.Fatalf("recorded join = %+v", call)
	}
}

func TestServeWS_DisconnectCleansUp(t *testing.T) {
	env := newWSEnv(t)
	cookie := env.signInCookie(t, auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleStudent})
	conn := env.dial(t, cookie)

	sendOp(t, conn, map[string]any{"op": "join_session", "session_id": "algebra-101"})
	readEvent(t, conn, hub.EventStudentJoined)
	waitCall(t, env.recorder.joins)

	conn.Close()

	waitCall(t, env.recorder.leaves)
	deadline := time.Now().Add(2 * time.Second)
	for env.ctrl.ParticipantCount("algebra-101") != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("participant count = %d after disconnect, want 0", env.ctrl.ParticipantCount("algebra-101"))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServeWS_AnonymousCanObserveCounts(t *testing.T) {
	env := newWSEnv(t)
	conn := env.dial(t, nil)

	// Mutations are silent no-ops without a signed-in user.
	sendOp(t, conn, map[string]any{"op": "join_session", "session_id": "algebra-101"})
	sendOp(t, conn, map[string]any{"op": "get_participant_count", "session_id": "algebra-101"})

	ev := readEvent(t, conn, hub.EventParticipantCountUpdated)
	var count struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(ev.Payload, &count); err != nil {
		t.Fatalf("decode count payload: %v", err)
	}
	if count.Count != 0 {
		t.Fatalf("count = %d, want 0", count.Count)
	}
	assertNoCall(t, env.recorder.joins)
}

func TestServeWS_MalformedMessageKeepsConnectionAlive(t *testing.T) {
	env := newWSEnv(t)
	cookie := env.signInCookie(t, auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleStudent})
	conn := env.dial(t, cookie)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write malformed frame: %v", err)
	}
	sendOp(t, conn, map[string]any{"op": "get_participant_count", "session_id": "algebra-101"})

	readEvent(t, conn, hub.EventParticipantCountUpdated)
}

func TestServeWS_MarkReadSyncsOtherTab(t *testing.T) {
	env := newWSEnv(t)
	userID := primitive.NewObjectID().Hex()
	cookie := env.signInCookie(t, auth.SessionUser{ID: userID, Role: models.RoleStudent})

	tabA := env.dial(t, cookie)
	tabB := env.dial(t, cookie)

	// Both tabs are auto-subscribed to the user group at upgrade; give the
	// second dial's subscription a moment to land before marking.
	notifID := primitive.NewObjectID().Hex()
	sendOp(t, tabB, map[string]any{"op": "get_participant_count", "session_id": "warmup"})
	readEvent(t, tabB, hub.EventParticipantCountUpdated)

	sendOp(t, tabA, map[string]any{"op": "mark_notification_read", "notification_id": notifID})

	ev := readEvent(t, tabB, hub.EventNotificationRead)
	var read struct {
		NotificationID string `json:"notification_id"`
	}
	if err := json.Unmarshal(ev.Payload, &read); err != nil {
		t.Fatalf("decode read payload: %v", err)
	}
	if read.NotificationID != notifID {
		t.Fatalf("notification_id = %q, want %q", read.NotificationID, notifID)
	}
	readEvent(t, tabB, hub.EventUpdateUnreadCount)
}

func TestParticipantCountEndpoint(t *testing.T) {
	env := newWSEnv(t)
	cookie := env.signInCookie(t, auth.SessionUser{ID: primitive.NewObjectID().Hex(), Role: models.RoleStudent})
	conn := env.dial(t, cookie)
	sendOp(t, conn, map[string]any{"op": "join_session", "session_id": "algebra-101"})
	readEvent(t, conn, hub.EventStudentJoined)

	resp, err := http.Get(env.srv.URL + "/live/sessions/algebra-101/participants")
	if err != nil {
		t.Fatalf("get participants: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		SessionID string `json:"session_id"`
		Count     int    `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.SessionID != "algebra-101" || body.Count != 1 {
		t.Fatalf("body = %+v", body)
	}
}
