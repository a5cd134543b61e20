package hub_test

import (
	"testing"
	"time"

	"github.com/dalemusser/coursehub/internal/app/system/hub"
)

// fakeTransport collects everything written through a connection. A closed
// fake fails writes, like a websocket whose peer went away.
type fakeTransport struct {
	events chan hub.ServerEvent
	closed chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events: make(chan hub.ServerEvent, 128),
		closed: make(chan struct{}),
	}
}

func (t *fakeTransport) WriteJSON(v any) error {
	ev, ok := v.(hub.ServerEvent)
	if !ok {
		return nil
	}
	select {
	case <-t.closed:
		return errTransportClosed
	default:
	}
	t.events <- ev
	return nil
}

func (t *fakeTransport) Close() error {
	select {
	case <-t.closed:
	default:
		close(t.closed)
	}
	return nil
}

type transportClosedError struct{}

func (transportClosedError) Error() string { return "transport closed" }

var errTransportClosed = transportClosedError{}

// openConn registers a connection with a running write loop and returns it
// with its transport.
func openConn(t *testing.T, reg *hub.Registry, id, userID string, roles ...string) (*hub.Conn, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	c := hub.NewConn(id, hub.Identity{UserID: userID, Roles: roles}, ft)
	reg.Open(c)
	go c.WriteLoop()
	t.Cleanup(c.Close)
	return c, ft
}

// recv waits for the next event on the transport.
func recv(t *testing.T, ft *fakeTransport) hub.ServerEvent {
	t.Helper()
	select {
	case ev := <-ft.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return hub.ServerEvent{}
	}
}

// recvNamed drains events until one with the given name arrives.
func recvNamed(t *testing.T, ft *fakeTransport, event string) hub.ServerEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ft.events:
			if ev.Event == event {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", event)
			return hub.ServerEvent{}
		}
	}
}

// assertNoEvent asserts nothing arrives within a short window.
func assertNoEvent(t *testing.T, ft *fakeTransport, event string) {
	t.Helper()
	select {
	case ev := <-ft.events:
		if ev.Event == event {
			t.Fatalf("unexpected %q event: %+v", event, ev)
		}
	case <-time.After(100 * time.Millisecond):
	}
}
