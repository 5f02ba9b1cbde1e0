package services

import (
	"context"
	"log"
	"os"
	"time"

	"hostelhub-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// DashboardSample is one point on the admin dashboard: marketplace counts
// plus host load.
type DashboardSample struct {
	CapturedAt        time.Time `json:"capturedAt" db:"captured_at"`
	Hostels           int       `json:"hostels" db:"hostels"`
	VerifiedHostels   int       `json:"verifiedHostels" db:"verified_hostels"`
	Students          int       `json:"students" db:"students"`
	Owners            int       `json:"owners" db:"owners"`
	PendingVisits     int       `json:"pendingVisits" db:"pending_visits"`
	OpenComplaints    int       `json:"openComplaints" db:"open_complaints"`
	ProcessRSSBytes   int64     `json:"processRssBytes" db:"process_rss_bytes"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes" db:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes" db:"system_memory_used_bytes"`
	DiskUsedBytes     int64     `json:"diskUsedBytes" db:"disk_used_bytes"`
	ProcessCpuLoad    float64   `json:"processCpuLoad" db:"process_cpu_load"`
	SystemCpuLoad     float64   `json:"systemCpuLoad" db:"system_cpu_load"`
}

type HostStats struct {
	ProcessRSSBytes   int64
	SystemMemoryTotal int64
	SystemMemoryUsed  int64
	DiskUsedBytes     int64
	ProcessCpuLoad    float64
	SystemCpuLoad     float64
}

// ReadHostStats samples the server process and machine. Readings that fail
// report zero.
func ReadHostStats(diskPath string) HostStats {
	stats := HostStats{}
	if memStat, err := mem.VirtualMemory(); err == nil {
		stats.SystemMemoryTotal = int64(memStat.Total)
		stats.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	diskStat, err := disk.Usage(diskPath)
	if err != nil {
		diskStat, err = disk.Usage("/")
	}
	if err == nil {
		stats.DiskUsedBytes = int64(diskStat.Used)
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if rss, err := proc.MemoryInfo(); err == nil && rss != nil {
			stats.ProcessRSSBytes = int64(rss.RSS)
		}
		if cpuPerc, err := proc.CPUPercent(); err == nil {
			stats.ProcessCpuLoad = cpuPerc / 100.0
		}
	}
	if sysCPU, err := cpu.Percent(0, false); err == nil && len(sysCPU) > 0 {
		stats.SystemCpuLoad = sysCPU[0] / 100.0
	}
	return stats
}

func CaptureDashboard(db *sqlx.DB, diskPath string) (DashboardSample, error) {
	sample := DashboardSample{}
	if err := db.Get(&sample, `
SELECT
  (SELECT count(*) FROM hostels) AS hostels,
  (SELECT count(*) FROM hostels WHERE verified) AS verified_hostels,
  (SELECT count(*) FROM students) AS students,
  (SELECT count(*) FROM owners) AS owners,
  (SELECT count(*) FROM visits WHERE status = $1) AS pending_visits,
  (SELECT count(*) FROM complaints WHERE status <> $2) AS open_complaints
`, models.VisitPending, models.ComplaintResolved); err != nil {
		return DashboardSample{}, err
	}
	host := ReadHostStats(diskPath)
	sample.CapturedAt = time.Now().UTC()
	sample.ProcessRSSBytes = host.ProcessRSSBytes
	sample.SystemMemoryTotal = host.SystemMemoryTotal
	sample.SystemMemoryUsed = host.SystemMemoryUsed
	sample.DiskUsedBytes = host.DiskUsedBytes
	sample.ProcessCpuLoad = host.ProcessCpuLoad
	sample.SystemCpuLoad = host.SystemCpuLoad

	_, err := db.Exec(`
INSERT INTO dashboard_samples (
  id, captured_at, hostels, verified_hostels, students, owners, pending_visits, open_complaints,
  process_rss_bytes, system_memory_total_bytes, system_memory_used_bytes, disk_used_bytes,
  process_cpu_load, system_cpu_load
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`, uuid.NewString(), sample.CapturedAt, sample.Hostels, sample.VerifiedHostels, sample.Students, sample.Owners,
		sample.PendingVisits, sample.OpenComplaints, sample.ProcessRSSBytes, sample.SystemMemoryTotal,
		sample.SystemMemoryUsed, sample.DiskUsedBytes, sample.ProcessCpuLoad, sample.SystemCpuLoad)
	if err != nil {
		return DashboardSample{}, err
	}
	return sample, nil
}

// LatestDashboard returns up to limit samples, oldest first.
func LatestDashboard(db *sqlx.DB, limit int) ([]DashboardSample, error) {
	rows := []DashboardSample{}
	if err := db.Select(&rows, `
SELECT captured_at, hostels, verified_hostels, students, owners, pending_visits, open_complaints,
       process_rss_bytes, system_memory_total_bytes, system_memory_used_bytes, disk_used_bytes,
       process_cpu_load, system_cpu_load
FROM dashboard_samples
ORDER BY captured_at DESC
LIMIT $1
`, limit); err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// RunDashboardSampler records a sample every interval and pushes it to
// connected admins until ctx ends.
func RunDashboardSampler(ctx context.Context, db *sqlx.DB, hub *EventHub, diskPath string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sample, err := CaptureDashboard(db, diskPath)
			if err != nil {
				log.Printf("dashboard capture: %v", err)
				continue
			}
			hub.PublishToRole(models.RoleAdmin, TopicDashboardSample, sample)
		case <-ctx.Done():
			return
		}
	}
}
