package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	logDateLayout    = "2006-01-02"
	maxRetentionDays = 7
)

// dailyLog tees the standard logger into app-YYYY-MM-DD.log and switches
// files when the date changes.
type dailyLog struct {
	dir       string
	retention int

	mu   sync.Mutex
	date string
	file *os.File
	stop chan struct{}
}

func retentionDays(requested int) int {
	if requested <= 0 || requested > maxRetentionDays {
		return maxRetentionDays
	}
	return requested
}

func openDailyLog(dir string, retention int) (*dailyLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	d := &dailyLog{dir: dir, retention: retention, stop: make(chan struct{})}
	if err := d.rotate(time.Now().Format(logDateLayout)); err != nil {
		return nil, err
	}
	go d.watch()
	return d, nil
}

func (d *dailyLog) rotate(date string) error {
	file, err := os.OpenFile(filepath.Join(d.dir, fmt.Sprintf("app-%s.log", date)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = file
	d.date = date
	pruneLogs(d.dir, d.retention, time.Now())
	return nil
}

func (d *dailyLog) watch() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			date := time.Now().Format(logDateLayout)
			d.mu.Lock()
			if date != d.date {
				if err := d.rotate(date); err != nil {
					log.Printf("log rotate: %v", err)
				}
			}
			d.mu.Unlock()
		case <-d.stop:
			return
		}
	}
}

func (d *dailyLog) Close() {
	close(d.stop)
	d.mu.Lock()
	defer d.mu.Unlock()
	log.SetOutput(os.Stdout)
	_ = d.file.Close()
}

// pruneLogs removes app logs older than the retention window.
func pruneLogs(dir string, retention int, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -(retention - 1))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		logDate, err := time.Parse(logDateLayout, strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log"))
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}
