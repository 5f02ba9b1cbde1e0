package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hostelhub-backend-go/internal/models"
)

func hostelPanelServer(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/hostels", func(w http.ResponseWriter, r *http.Request) {
		hostels := []models.Hostel{{ID: "h1", Name: "Sunrise PG"}, {ID: "h2", Name: "Moonlight Hostel"}}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": hostels, "total": 2})
	})
	mux.HandleFunc("/api/hostels/h1/photos", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"images": []models.Image{{ContentType: "image/png", Data: "AA=="}}})
	})
	mux.HandleFunc("/api/hostels/h2/photos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/admin/hostels/h1/verify", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.Hostel{ID: "h1", Name: "Sunrise PG", Verified: true})
	})
	mux.HandleFunc("/api/admin/hostels/h2", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte(`{"id":"h2"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	session, _ := OpenSession("")
	_ = session.Set(SessionData{Token: "t", Role: "admin"})
	return New(srv.URL, session)
}

func TestHostelPanelIsolatesPhotoFailures(t *testing.T) {
	panel := hostelPanelServer(t).HostelPanel()
	if err := panel.Load(context.Background(), true); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(panel.Items) != 2 {
		t.Fatalf("expected 2 hostels, got %d", len(panel.Items))
	}
	if len(panel.Items[0].Images) != 1 {
		t.Fatalf("expected h1 photos, got %v", panel.Items[0].Images)
	}
	if panel.Items[1].Images == nil || len(panel.Items[1].Images) != 0 {
		t.Fatalf("expected empty image list for h2, got %v", panel.Items[1].Images)
	}
}

func TestHostelPanelPatchesOnSuccess(t *testing.T) {
	panel := hostelPanelServer(t).HostelPanel()
	ctx := context.Background()
	if err := panel.Load(ctx, true); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := panel.Verify(ctx, "h1", true); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !panel.Items[0].Verified || len(panel.Items[0].Images) != 1 {
		t.Fatalf("expected verified h1 with photos kept, got %+v", panel.Items[0])
	}
	if err := panel.Delete(ctx, "h2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(panel.Items) != 1 || panel.Items[0].ID != "h1" {
		t.Fatalf("expected only h1 left, got %+v", panel.Items)
	}
}

func TestReplaceByIDAppendsUnknown(t *testing.T) {
	items := []models.Owner{{ID: "o1"}}
	items = replaceByID(items, models.Owner{ID: "o2"}, ownerID)
	items = replaceByID(items, models.Owner{ID: "o1", Name: "Ravi"}, ownerID)
	if len(items) != 2 || items[0].Name != "Ravi" {
		t.Fatalf("unexpected items: %+v", items)
	}
}
