package services

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	mu     sync.Mutex
	events []Event
	fail   bool
	closed bool
	got    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{got: make(chan struct{}, 64)}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.events = append(c.events, v.(Event))
	c.got <- struct{}{}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []string{}
	for _, e := range c.events {
		out = append(out, e.Topic)
	}
	return out
}

func waitEvent(t *testing.T, c *fakeConn) {
	t.Helper()
	select {
	case <-c.got:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestEventHubRoutesByUserAndRole(t *testing.T) {
	hub := NewEventHub()
	student := newFakeConn()
	admin := newFakeConn()
	hub.Register("student-1", []string{"STUDENT"}, student)
	hub.Register("admin-1", []string{"admin"}, admin)

	hub.PublishToUser("student-1", TopicWishlistCount, map[string]int{"count": 3})
	waitEvent(t, student)
	hub.PublishToRole("ADMIN", TopicDashboardSample, DashboardSample{Hostels: 4})
	waitEvent(t, admin)
	hub.PublishToUser("nobody", TopicVisitsUpdated, nil)

	if got := student.topics(); len(got) != 1 || got[0] != TopicWishlistCount {
		t.Fatalf("student got %v", got)
	}
	if got := admin.topics(); len(got) != 1 || got[0] != TopicDashboardSample {
		t.Fatalf("admin got %v", got)
	}
	hub.Close()
	if !student.closed || !admin.closed {
		t.Fatalf("close should disconnect all subscribers")
	}
	if hub.SubscriberCount() != 0 {
		t.Fatalf("hub should be empty after close")
	}
}

func TestEventHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewEventHub()
	conn := newFakeConn()
	sub := hub.Register("u", nil, conn)
	hub.Unregister(sub)
	hub.Unregister(sub)
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("subscriber did not stop")
	}
	hub.PublishToUser("u", TopicWishlistCount, 1)
	if len(conn.topics()) != 0 {
		t.Fatalf("unregistered subscriber received events")
	}
}

func TestEventHubDropsFailedSubscriber(t *testing.T) {
	hub := NewEventHub()
	conn := newFakeConn()
	conn.fail = true
	sub := hub.Register("u", nil, conn)
	hub.PublishToUser("u", TopicWishlistCount, 1)
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("failed subscriber was not stopped")
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("failed subscriber still registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
