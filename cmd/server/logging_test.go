package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPruneLogsKeepsRetentionWindow(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	names := []string{"app-2024-03-10.log", "app-2024-03-08.log", "app-2024-03-01.log", "other.txt"}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	pruneLogs(dir, 3, now)
	for name, want := range map[string]bool{
		"app-2024-03-10.log": true,
		"app-2024-03-08.log": true,
		"app-2024-03-01.log": false,
		"other.txt":          true,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		if exists := err == nil; exists != want {
			t.Fatalf("%s exists=%v, want %v", name, exists, want)
		}
	}
}

func TestRetentionDaysCapped(t *testing.T) {
	if got := retentionDays(30); got != maxRetentionDays {
		t.Fatalf("expected cap %d, got %d", maxRetentionDays, got)
	}
	if got := retentionDays(0); got != maxRetentionDays {
		t.Fatalf("expected default %d, got %d", maxRetentionDays, got)
	}
	if got := retentionDays(2); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}
