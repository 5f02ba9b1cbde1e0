package services

import (
	"strings"
	"time"

	"hostelhub-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ComplaintTypes = []string{"Wi-Fi", "Washroom", "Cleanliness", "Rooms", "Food"}

type ComplaintInput struct {
	HostelID      string `json:"hostelId" validate:"required"`
	Description   string `json:"description" validate:"required,min=5,max=2000"`
	ComplaintType string `json:"complaintType" validate:"required,oneof=Wi-Fi Washroom Cleanliness Rooms Food"`
	IsAnonymous   bool   `json:"isAnonymous"`
}

const complaintColumns = `
SELECT c.id, c.student_id, s.name AS student_name, c.hostel_id, h.name AS hostel_name,
       c.complaint_type, c.description, c.is_anonymous, c.status, c.created_at
FROM complaints c
JOIN students s ON s.id = c.student_id
JOIN hostels h ON h.id = c.hostel_id
`

// CreateComplaint files a complaint against the student's admitted hostel
// and links any already stored image assets.
func CreateComplaint(db *sqlx.DB, studentID string, input ComplaintInput, imageIDs []string) (models.Complaint, error) {
	id := uuid.NewString()
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if err := RequireAction(flags, ActionFileComplaint); err != nil {
			return err
		}
		if *flags.AdmittedHostel != input.HostelID {
			return ErrForbidden("Complaints are limited to your admitted hostel")
		}
		now := time.Now().UTC()
		if _, err := tx.Exec(`
INSERT INTO complaints (id, student_id, hostel_id, complaint_type, description, is_anonymous, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
`, id, studentID, input.HostelID, input.ComplaintType, strings.TrimSpace(input.Description), input.IsAnonymous,
			models.ComplaintOpen, now); err != nil {
			return err
		}
		for _, mediaID := range imageIDs {
			if _, err := tx.Exec(`INSERT INTO complaint_images (complaint_id, media_id) VALUES ($1,$2)`, id, mediaID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Complaint{}, err
	}
	complaint := models.Complaint{}
	if err := db.Get(&complaint, complaintColumns+"WHERE c.id = $1", id); err != nil {
		return models.Complaint{}, err
	}
	complaint.Images = imageIDs
	if complaint.Images == nil {
		complaint.Images = []string{}
	}
	return complaint, nil
}

func ListStudentComplaints(db *sqlx.DB, studentID string) ([]models.Complaint, error) {
	complaints := []models.Complaint{}
	if err := db.Select(&complaints, complaintColumns+"WHERE c.student_id = $1 ORDER BY c.created_at DESC", studentID); err != nil {
		return nil, err
	}
	return complaints, attachComplaintImages(db, complaints)
}

// ListOwnerComplaints lists complaints against the owner's hostels with
// anonymous complainants masked.
func ListOwnerComplaints(db *sqlx.DB, ownerID string) ([]models.Complaint, error) {
	complaints := []models.Complaint{}
	if err := db.Select(&complaints, complaintColumns+"WHERE h.owner_id = $1 ORDER BY c.created_at DESC", ownerID); err != nil {
		return nil, err
	}
	for i := range complaints {
		complaints[i] = MaskAnonymous(complaints[i])
	}
	return complaints, attachComplaintImages(db, complaints)
}

// MaskAnonymous hides who filed an anonymous complaint.
func MaskAnonymous(c models.Complaint) models.Complaint {
	if c.IsAnonymous {
		c.StudentID = nil
		c.StudentName = nil
	}
	return c
}

var complaintStatuses = map[string]bool{
	models.ComplaintOpen:     true,
	models.ComplaintNoticed:  true,
	models.ComplaintResolved: true,
}

func UpdateComplaintStatus(db *sqlx.DB, ownerID, complaintID, status string) (models.Complaint, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !complaintStatuses[status] {
		return models.Complaint{}, ErrBadRequest("Unknown complaint status " + status)
	}
	res, err := db.Exec(`
UPDATE complaints SET status = $3, updated_at = $4
WHERE id = $1 AND hostel_id IN (SELECT id FROM hostels WHERE owner_id = $2)
`, complaintID, ownerID, status, time.Now().UTC())
	if err != nil {
		return models.Complaint{}, err
	}
	if err := requireAffected(res, "Complaint not found"); err != nil {
		return models.Complaint{}, err
	}
	complaints := []models.Complaint{{}}
	if err := db.Get(&complaints[0], complaintColumns+"WHERE c.id = $1", complaintID); err != nil {
		return models.Complaint{}, err
	}
	complaints[0] = MaskAnonymous(complaints[0])
	if err := attachComplaintImages(db, complaints); err != nil {
		return models.Complaint{}, err
	}
	return complaints[0], nil
}

// attachComplaintImages fills Images with media asset ids.
func attachComplaintImages(db *sqlx.DB, complaints []models.Complaint) error {
	for i := range complaints {
		complaints[i].Images = []string{}
	}
	if len(complaints) == 0 {
		return nil
	}
	ids := make([]string, 0, len(complaints))
	index := map[string]int{}
	for i, c := range complaints {
		ids = append(ids, c.ID)
		index[c.ID] = i
	}
	links := []struct {
		ComplaintID string `db:"complaint_id"`
		MediaID     string `db:"media_id"`
	}{}
	query, args, err := sqlx.In(`SELECT complaint_id, media_id FROM complaint_images WHERE complaint_id IN (?)`, ids)
	if err != nil {
		return err
	}
	if err := db.Select(&links, db.Rebind(query), args...); err != nil {
		return err
	}
	for _, link := range links {
		i := index[link.ComplaintID]
		complaints[i].Images = append(complaints[i].Images, link.MediaID)
	}
	return nil
}
