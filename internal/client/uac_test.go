package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"hostelhub-backend-go/internal/models"
)

func uacServer(t *testing.T, failPatch bool, loads *int32) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/groups", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(loads, 1)
		groups := []models.Group{{ID: "g1", Name: "Hostels", ModuleID: "m1", ModuleName: "hostels", Roles: []string{"MANAGER"}}}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": groups})
	})
	mux.HandleFunc("/api/admin/permissions/MANAGER", func(w http.ResponseWriter, r *http.Request) {
		perms := []models.Permission{{ModuleID: "m1", ModuleName: "hostels", Read: true}}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": perms})
	})
	mutation := func(w http.ResponseWriter, r *http.Request) {
		if failPatch {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"Internal server error"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}
	mux.HandleFunc("/api/admin/update-role-permissions", mutation)
	mux.HandleFunc("/api/admin/remove-permission-from-role", mutation)
	mux.HandleFunc("/api/admin/assign-group-to-role", mutation)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	session, _ := OpenSession("")
	_ = session.Set(SessionData{Token: "t"})
	return New(srv.URL, session)
}

func writePermission(u *UAC) bool {
	return u.Roles[0].Permissions["hostels"][0].Write
}

func TestUACToggleKeepsOptimisticPatch(t *testing.T) {
	var loads int32
	u := uacServer(t, false, &loads).UAC()
	if err := u.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := u.TogglePermission(context.Background(), "MANAGER", "m1", "write"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !writePermission(u) {
		t.Fatalf("expected local write=true")
	}
	if atomic.LoadInt32(&loads) != 1 {
		t.Fatalf("expected no refetch on success, got %d loads", loads)
	}
}

func TestUACToggleReconcilesOnFailure(t *testing.T) {
	var loads int32
	u := uacServer(t, true, &loads).UAC()
	if err := u.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	err := u.TogglePermission(context.Background(), "MANAGER", "m1", "write")
	if StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
	if writePermission(u) {
		t.Fatalf("expected server state restored")
	}
	if atomic.LoadInt32(&loads) != 2 {
		t.Fatalf("expected one refetch, got %d loads", loads)
	}
}

func TestUACRemoveGroupKeepsPatch(t *testing.T) {
	var loads int32
	u := uacServer(t, false, &loads).UAC()
	if err := u.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := u.RemoveGroup(context.Background(), "manager", "g1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(u.Roles[0].Groups) != 0 {
		t.Fatalf("expected group removed locally, got %+v", u.Roles[0].Groups)
	}
	if atomic.LoadInt32(&loads) != 1 {
		t.Fatalf("expected no refetch on success, got %d loads", loads)
	}
}

func TestUACRemoveGroupReconcilesOnFailure(t *testing.T) {
	var loads int32
	u := uacServer(t, true, &loads).UAC()
	if err := u.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	err := u.RemoveGroup(context.Background(), "MANAGER", "g1")
	if StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
	if len(u.Roles[0].Groups) != 1 || u.Roles[0].Groups[0].ID != "g1" {
		t.Fatalf("expected server state restored, got %+v", u.Roles[0].Groups)
	}
	if atomic.LoadInt32(&loads) != 2 {
		t.Fatalf("expected one refetch, got %d loads", loads)
	}
}

func TestUACAssignGroupRefetches(t *testing.T) {
	var loads int32
	u := uacServer(t, false, &loads).UAC()
	if err := u.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := u.AssignGroup(context.Background(), "MANAGER", "g1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if atomic.LoadInt32(&loads) != 2 {
		t.Fatalf("expected refetch after assign, got %d loads", loads)
	}
}

func TestUACAssignGroupFailureSkipsRefetch(t *testing.T) {
	var loads int32
	u := uacServer(t, true, &loads).UAC()
	if err := u.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := u.AssignGroup(context.Background(), "MANAGER", "g1"); StatusOf(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
	if atomic.LoadInt32(&loads) != 1 {
		t.Fatalf("expected no refetch after failed assign, got %d loads", loads)
	}
}
