package services

import "testing"

func TestModuleChangeBlocked(t *testing.T) {
	other := "module-b"
	same := "module-a"
	tests := []struct {
		name   string
		next   *string
		linked int
		want   bool
	}{
		{"no module in request", nil, 3, false},
		{"same module", &same, 3, false},
		{"move without roles", &other, 0, false},
		{"move with linked roles", &other, 1, true},
	}
	for _, tt := range tests {
		if got := moduleChangeBlocked("module-a", tt.next, tt.linked); got != tt.want {
			t.Errorf("%s: moduleChangeBlocked = %v, want %v", tt.name, got, tt.want)
		}
	}
}
