package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"hostelhub-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	visitDateLayout = "2006-01-02"
	visitTimeLayout = "15:04"
)

type VisitRequest struct {
	HostelID string `json:"hostelId" validate:"required"`
	Date     string `json:"date" validate:"required"`
	Time     string `json:"time" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// ParseVisitSlot checks the date and time strings and rejects slots in the past.
func ParseVisitSlot(date, clock string, now time.Time) (time.Time, error) {
	day, err := time.Parse(visitDateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, ErrValidation(map[string]string{"date": "Use the YYYY-MM-DD format"})
	}
	at, err := time.Parse(visitTimeLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, ErrValidation(map[string]string{"time": "Use the HH:MM format"})
	}
	slot := time.Date(day.Year(), day.Month(), day.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if slot.Before(now) {
		return time.Time{}, ErrValidation(map[string]string{"date": "Visit must be scheduled in the future"})
	}
	return slot, nil
}

const visitColumns = `
SELECT v.id, v.student_id, s.name AS student_name, v.hostel_id, h.name AS hostel_name,
       v.visit_date, v.visit_time, v.email, v.status, v.updated_at
FROM visits v
JOIN students s ON s.id = v.student_id
JOIN hostels h ON h.id = v.hostel_id
`

func upsertVisit(tx *sqlx.Tx, studentID, hostelID, date, clock, email, status string) error {
	now := time.Now().UTC()
	_, err := tx.Exec(`
INSERT INTO visits (id, student_id, hostel_id, visit_date, visit_time, email, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
ON CONFLICT (student_id, hostel_id) DO UPDATE SET
  visit_date = CASE WHEN EXCLUDED.visit_date = '' THEN visits.visit_date ELSE EXCLUDED.visit_date END,
  visit_time = CASE WHEN EXCLUDED.visit_time = '' THEN visits.visit_time ELSE EXCLUDED.visit_time END,
  email = EXCLUDED.email,
  status = EXCLUDED.status,
  updated_at = EXCLUDED.updated_at
`, uuid.NewString(), studentID, hostelID, date, clock, email, status, now)
	return err
}

// RequestVisit schedules a visit to a wishlisted hostel, or reschedules the
// existing one back to pending.
func RequestVisit(db *sqlx.DB, studentID string, req VisitRequest) (models.Visit, error) {
	if _, err := ParseVisitSlot(req.Date, req.Time, time.Now()); err != nil {
		return models.Visit{}, err
	}
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if err := RequireAction(flags, ActionRequestVisit); err != nil {
			return err
		}
		if err := requireWishlisted(tx, studentID, req.HostelID); err != nil {
			return err
		}
		return upsertVisit(tx, studentID, req.HostelID, strings.TrimSpace(req.Date), strings.TrimSpace(req.Time),
			NormalizeEmail(req.Email), models.VisitPending)
	})
	if err != nil {
		return models.Visit{}, err
	}
	visit := models.Visit{}
	err = db.Get(&visit, visitColumns+"WHERE v.student_id = $1 AND v.hostel_id = $2", studentID, req.HostelID)
	return visit, err
}

func ListStudentVisits(db *sqlx.DB, studentID string) ([]models.Visit, error) {
	visits := []models.Visit{}
	err := db.Select(&visits, visitColumns+"WHERE v.student_id = $1 ORDER BY v.updated_at DESC", studentID)
	return visits, err
}

// ListOwnerVisits lists visits to any hostel the owner manages. A non-empty
// status narrows the list.
func ListOwnerVisits(db *sqlx.DB, ownerID, status string) ([]models.Visit, error) {
	visits := []models.Visit{}
	err := db.Select(&visits, visitColumns+`
WHERE h.owner_id = $1 AND ($2 = '' OR v.status = $2)
ORDER BY v.visit_date, v.visit_time
`, ownerID, status)
	return visits, err
}

var visitStatuses = map[string]bool{
	models.VisitPending:       true,
	models.VisitAccepted:      true,
	models.VisitNotInterested: true,
}

func UpdateVisitStatus(db *sqlx.DB, ownerID, visitID, status string) (models.Visit, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !visitStatuses[status] {
		return models.Visit{}, ErrBadRequest("Unknown visit status " + status)
	}
	res, err := db.Exec(`
UPDATE visits SET status = $3, updated_at = $4
WHERE id = $1 AND hostel_id IN (SELECT id FROM hostels WHERE owner_id = $2)
`, visitID, ownerID, status, time.Now().UTC())
	if err != nil {
		return models.Visit{}, err
	}
	if err := requireAffected(res, "Visit not found"); err != nil {
		return models.Visit{}, err
	}
	visit := models.Visit{}
	err = db.Get(&visit, visitColumns+"WHERE v.id = $1", visitID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Visit{}, ErrNotFound("Visit not found")
	}
	return visit, err
}
