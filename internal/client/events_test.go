package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hostelhub-backend-go/internal/services"

	"github.com/gorilla/websocket"
)

func TestListenDeliversEventsUntilCancelled(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/events" || r.URL.Query().Get("token") != "t" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(services.Event{Topic: "wishlist.approved", Data: "s1", At: time.Now().UTC()})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	session, _ := OpenSession("")
	_ = session.Set(SessionData{Token: "t"})
	c := New(srv.URL, session)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan services.Event, 1)
	result := make(chan error, 1)
	go func() {
		result <- c.Listen(ctx, func(e services.Event) { events <- e })
	}()

	select {
	case e := <-events:
		if e.Topic != "wishlist.approved" {
			t.Fatalf("unexpected topic %q", e.Topic)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no event received")
	}
	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("expected nil after cancel, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("listen did not return after cancel")
	}
}

func TestListenRequiresSession(t *testing.T) {
	session, _ := OpenSession("")
	c := New("http://127.0.0.1:1", session)
	if err := c.Listen(context.Background(), func(services.Event) {}); err != ErrNoSession {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
