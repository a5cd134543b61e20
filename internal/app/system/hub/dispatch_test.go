package hub_test

import (
	"fmt"
	"testing"

	"github.com/dalemusser/coursehub/internal/app/system/hub"
	"go.uber.org/zap"
)

func TestSendDeliversToAllMembers(t *testing.T) {
	reg := hub.NewRegistry()
	g := hub.NewGroups()
	d := hub.NewDispatcher(g, reg, zap.NewNop())

	group := hub.SessionGroup("s1")
	transports := make([]*fakeTransport, 0, 3)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("c%d", i)
		_, ft := openConn(t, reg, id, fmt.Sprintf("u%d", i))
		g.Join(group, id)
		transports = append(transports, ft)
	}

	d.Send(group, hub.EventParticipantCountUpdated, map[string]int{"count": 3})

	for i, ft := range transports {
		ev := recv(t, ft)
		if ev.Event != hub.EventParticipantCountUpdated {
			t.Errorf("member %d got event %q, want %q", i, ev.Event, hub.EventParticipantCountUpdated)
		}
	}
}

func TestSendSkipsDeadConnection(t *testing.T) {
	reg := hub.NewRegistry()
	g := hub.NewGroups()
	d := hub.NewDispatcher(g, reg, zap.NewNop())

	group := hub.SessionGroup("s1")
	dead, _ := openConn(t, reg, "dead", "u1")
	_, aliveFT := openConn(t, reg, "alive", "u2")
	g.Join(group, "dead")
	g.Join(group, "alive")

	// Close one member mid-membership; Send must not error and the other
	// member must still receive the event.
	dead.Close()
	d.Send(group, hub.EventStudentJoined, map[string]string{"user_id": "u2"})

	ev := recv(t, aliveFT)
	if ev.Event != hub.EventStudentJoined {
		t.Errorf("alive member got %q, want %q", ev.Event, hub.EventStudentJoined)
	}
}

func TestSendToUnknownGroupIsNoop(t *testing.T) {
	reg := hub.NewRegistry()
	d := hub.NewDispatcher(hub.NewGroups(), reg, zap.NewNop())
	// Must not panic or block.
	d.Send(hub.SessionGroup("ghost"), hub.EventStudentLeft, nil)
}

func TestSendExceptSkipsOriginator(t *testing.T) {
	reg := hub.NewRegistry()
	g := hub.NewGroups()
	d := hub.NewDispatcher(g, reg, zap.NewNop())

	group := hub.UserGroup("u1")
	_, originFT := openConn(t, reg, "origin", "u1")
	_, otherFT := openConn(t, reg, "other", "u1")
	g.Join(group, "origin")
	g.Join(group, "other")

	d.SendExcept(group, "origin", hub.EventNotificationRead, map[string]string{"notification_id": "n1"})

	ev := recv(t, otherFT)
	if ev.Event != hub.EventNotificationRead {
		t.Errorf("other tab got %q, want %q", ev.Event, hub.EventNotificationRead)
	}
	assertNoEvent(t, originFT, hub.EventNotificationRead)
}

func TestSendPreservesPerConnectionOrder(t *testing.T) {
	reg := hub.NewRegistry()
	g := hub.NewGroups()
	d := hub.NewDispatcher(g, reg, zap.NewNop())

	group := hub.SessionGroup("s1")
	_, ft := openConn(t, reg, "c1", "u1")
	g.Join(group, "c1")

	for i := 0; i < 10; i++ {
		d.Send(group, hub.EventParticipantCountUpdated, i)
	}
	for i := 0; i < 10; i++ {
		ev := recv(t, ft)
		if ev.Payload != i {
			t.Fatalf("event %d arrived out of order: payload %v", i, ev.Payload)
		}
	}
}

func TestQueueAfterCloseReportsFalse(t *testing.T) {
	ft := newFakeTransport()
	c := hub.NewConn("c1", hub.Identity{UserID: "u1"}, ft)
	c.Close()
	c.Close() // idempotent

	if c.Queue(hub.ServerEvent{Event: hub.EventRefreshNotifications}) {
		t.Error("Queue after Close should report false")
	}
}
