package services

import (
	"testing"

	"hostelhub-backend-go/internal/models"
)

func TestMaskAnonymous(t *testing.T) {
	id, name := "s-1", "Asha"
	c := models.Complaint{ID: "c-1", StudentID: &id, StudentName: &name, IsAnonymous: true, HostelID: "h-1"}
	masked := MaskAnonymous(c)
	if masked.StudentID != nil || masked.StudentName != nil {
		t.Fatalf("anonymous complaint leaked identity: %+v", masked)
	}
	if c.StudentID == nil {
		t.Fatalf("input must not be modified")
	}
	if masked.HostelID != "h-1" || masked.ID != "c-1" {
		t.Fatalf("masking dropped other fields: %+v", masked)
	}

	c.IsAnonymous = false
	if open := MaskAnonymous(c); open.StudentName == nil || *open.StudentName != "Asha" {
		t.Fatalf("named complaint should keep identity: %+v", open)
	}
}

func TestComplaintInputValidation(t *testing.T) {
	v := NewFormValidator()
	for _, kind := range ComplaintTypes {
		in := ComplaintInput{HostelID: "h", Description: "Broken tap", ComplaintType: kind}
		if errs := v.Struct(in); len(errs) != 0 {
			t.Fatalf("type %s rejected: %v", kind, errs)
		}
	}
	errs := v.Struct(ComplaintInput{HostelID: "h", Description: "Broken tap", ComplaintType: "Noise"})
	if _, ok := errs["complaintType"]; !ok {
		t.Fatalf("unknown type accepted: %v", errs)
	}
}
