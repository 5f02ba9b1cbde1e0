package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"hostelhub-backend-go/internal/models"
)

func TestAttachPhotosIsolatesFailures(t *testing.T) {
	hostels := []models.Hostel{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	var calls int32
	AttachPhotos(context.Background(), hostels, func(_ context.Context, id string) ([]models.Image, error) {
		atomic.AddInt32(&calls, 1)
		if id == "b" {
			return nil, errors.New("disk gone")
		}
		return []models.Image{{ContentType: "image/png", Data: id}}, nil
	})
	if calls != 3 {
		t.Fatalf("expected 3 loads, got %d", calls)
	}
	if len(hostels[0].Images) != 1 || hostels[0].Images[0].Data != "a" {
		t.Fatalf("hostel a photos wrong: %+v", hostels[0].Images)
	}
	if hostels[1].Images == nil || len(hostels[1].Images) != 0 {
		t.Fatalf("failed hostel should get an empty list, got %+v", hostels[1].Images)
	}
	if len(hostels[2].Images) != 1 || hostels[2].Images[0].Data != "c" {
		t.Fatalf("hostel c photos wrong: %+v", hostels[2].Images)
	}
}

func TestAttachPhotosMatchesById(t *testing.T) {
	hostels := make([]models.Hostel, 40)
	for i := range hostels {
		hostels[i].ID = string(rune('A' + i))
	}
	AttachPhotos(context.Background(), hostels, func(_ context.Context, id string) ([]models.Image, error) {
		return []models.Image{{Data: id}}, nil
	})
	for _, h := range hostels {
		if len(h.Images) != 1 || h.Images[0].Data != h.ID {
			t.Fatalf("hostel %s got photos %+v", h.ID, h.Images)
		}
	}
}

func TestHostelInputValidation(t *testing.T) {
	v := NewFormValidator()
	errs := v.Struct(HostelInput{Name: "X", HostelType: "mixed", StudentsPerRoom: 0})
	for _, field := range []string{"name", "address", "hostelType", "studentsPerRoom"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected error for %s, got %v", field, errs)
		}
	}
	ok := HostelInput{Name: "Sunrise PG", Address: "MG Road", HostelType: "boys", StudentsPerRoom: 2,
		RentStructure: []models.RentSlab{{StudentsPerRoom: 2, RentPerStudent: 4000}}}
	if errs := v.Struct(ok); len(errs) != 0 {
		t.Fatalf("valid input rejected: %v", errs)
	}
}
