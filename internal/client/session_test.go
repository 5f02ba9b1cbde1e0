package client

import (
	"path/filepath"
	"testing"
)

func TestSessionPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := OpenSession(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Token() != "" {
		t.Fatalf("expected empty session")
	}
	if err := s.Set(SessionData{Token: "t1", Role: "student", ProfileID: "p1", Email: "a@b.in", Wishlist: []string{"h1"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	reopened, err := OpenSession(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.Get()
	if got.Token != "t1" || got.ProfileID != "p1" || len(got.Wishlist) != 1 {
		t.Fatalf("unexpected data: %+v", got)
	}
}

func TestSessionSubscribeAndClear(t *testing.T) {
	s, _ := OpenSession("")
	var seen []SessionData
	unsubscribe := s.Subscribe(func(d SessionData) { seen = append(seen, d) })
	_ = s.Set(SessionData{Token: "t1"})
	_ = s.SetWishlist([]string{"h1", "h2"})
	_ = s.Clear()
	if len(seen) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(seen))
	}
	if len(seen[1].Wishlist) != 2 || seen[1].Token != "t1" {
		t.Fatalf("unexpected second notification: %+v", seen[1])
	}
	if seen[2].Token != "" {
		t.Fatalf("expected cleared session, got %+v", seen[2])
	}
	unsubscribe()
	_ = s.Set(SessionData{Token: "t2"})
	if len(seen) != 3 {
		t.Fatalf("expected no notification after unsubscribe")
	}
}

func TestSessionGetReturnsCopy(t *testing.T) {
	s, _ := OpenSession("")
	_ = s.Set(SessionData{Token: "t", Wishlist: []string{"h1"}})
	got := s.Get()
	got.Wishlist[0] = "changed"
	if s.Get().Wishlist[0] != "h1" {
		t.Fatalf("session data leaked through Get")
	}
}
