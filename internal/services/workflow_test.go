package services

import (
	"net/http"
	"testing"
)

func TestStudentStateOf(t *testing.T) {
	hostel := "h-1"
	empty := ""
	tests := []struct {
		name  string
		flags StudentFlags
		want  StudentState
	}{
		{"fresh", StudentFlags{}, StateBrowsing},
		{"submitted", StudentFlags{WishlistSubmitted: true}, StateUnderReview},
		{"approved", StudentFlags{WishlistSubmitted: true, WishlistApproved: true}, StateApproved},
		{"admitted", StudentFlags{WishlistSubmitted: true, WishlistApproved: true, AdmittedHostel: &hostel}, StateAdmitted},
		{"empty admitted id", StudentFlags{WishlistApproved: true, AdmittedHostel: &empty}, StateApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StudentStateOf(tt.flags); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAllowedActionsByState(t *testing.T) {
	if !ActionAllowed(StateBrowsing, ActionAddToWishlist) {
		t.Fatalf("browsing students can add to wishlist")
	}
	if ActionAllowed(StateUnderReview, ActionAddToWishlist) {
		t.Fatalf("wishlist is frozen under review")
	}
	if !ActionAllowed(StateApproved, ActionTakeAdmission) || ActionAllowed(StateBrowsing, ActionTakeAdmission) {
		t.Fatalf("take admission only after approval")
	}
	if !ActionAllowed(StateAdmitted, ActionUploadReceipt) || ActionAllowed(StateApproved, ActionUploadReceipt) {
		t.Fatalf("receipt upload only after admission")
	}
	actions := AllowedActions(StateAdmitted)
	actions[0] = "mutated"
	if AllowedActions(StateAdmitted)[0] == "mutated" {
		t.Fatalf("AllowedActions must return a copy")
	}
}

func TestRequireActionConflict(t *testing.T) {
	err := RequireAction(StudentFlags{WishlistSubmitted: true}, ActionSubmitWishlist)
	serr, ok := AsServiceError(err)
	if !ok || serr.Status != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
	if err := RequireAction(StudentFlags{}, ActionSubmitWishlist); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCanAddToWishlist(t *testing.T) {
	if !CanAddToWishlist(4, 5) {
		t.Fatalf("4 of 5 should allow one more")
	}
	if CanAddToWishlist(5, 5) {
		t.Fatalf("5 of 5 is full")
	}
}
