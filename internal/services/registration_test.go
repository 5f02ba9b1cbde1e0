package services

import (
	"testing"

	"hostelhub-backend-go/internal/models"
)

func TestCanReplaceRegistration(t *testing.T) {
	cases := map[string]bool{
		models.UserStatusPending:  true,
		models.UserStatusActive:   false,
		models.UserStatusDisabled: false,
	}
	for status, want := range cases {
		if got := CanReplaceRegistration(status); got != want {
			t.Fatalf("%s: expected %v, got %v", status, want, got)
		}
	}
}
