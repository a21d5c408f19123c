package realtime

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type fakeConn struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("connection reset")
	}
	f.events = append(f.events, v.(Event))
	return nil
}

func (f *fakeConn) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func TestPublishReachesOnlySubscribedSessions(t *testing.T) {
	hub := NewHub(zap.NewNop())

	inRoom := &fakeConn{}
	otherRoom := &fakeConn{}
	hub.Subscribe("g1", NewClient(inRoom))
	hub.Subscribe("g2", NewClient(otherRoom))

	hub.Publish("g1", EventMessageCreated, "hello")

	if got := len(inRoom.received()); got != 1 {
		t.Fatalf("subscriber got %d events, want 1", got)
	}
	if got := len(otherRoom.received()); got != 0 {
		t.Fatalf("other room got %d events, want 0", got)
	}

	ev := inRoom.received()[0]
	if ev.Kind != EventMessageCreated || ev.GroupID != "g1" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestPublishAfterUnsubscribeDeliversNothing(t *testing.T) {
	hub := NewHub(zap.NewNop())

	conn := &fakeConn{}
	client := NewClient(conn)
	hub.Subscribe("g1", client)
	hub.Unsubscribe("g1", client)

	hub.Publish("g1", EventMemberJoined, nil)

	if got := len(conn.received()); got != 0 {
		t.Fatalf("unsubscribed session got %d events, want 0", got)
	}
}

func TestFailedDeliveryDropsSubscriberAndContinues(t *testing.T) {
	hub := NewHub(zap.NewNop())

	broken := &fakeConn{fail: true}
	healthy := &fakeConn{}
	hub.Subscribe("g1", NewClient(broken))
	hub.Subscribe("g1", NewClient(healthy))

	hub.Publish("g1", EventMessageDeleted, "m1")

	if got := len(healthy.received()); got != 1 {
		t.Fatalf("healthy session got %d events, want 1", got)
	}
	if got := hub.SubscriberCount("g1"); got != 1 {
		t.Fatalf("subscriber count = %d after failed delivery, want 1", got)
	}
}

func TestDropRemovesSessionFromAllRooms(t *testing.T) {
	hub := NewHub(zap.NewNop())

	conn := &fakeConn{}
	client := NewClient(conn)
	hub.Subscribe("g1", client)
	hub.Subscribe("g2", client)

	hub.Drop(client)

	if hub.SubscriberCount("g1") != 0 || hub.SubscriberCount("g2") != 0 {
		t.Fatal("dropped session still subscribed")
	}
}
