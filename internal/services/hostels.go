package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"hostelhub-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

const photoWorkers = 8

type HostelInput struct {
	Name            string            `json:"name" validate:"required,min=2,max=120"`
	Address         string            `json:"address" validate:"required"`
	Beds            int               `json:"beds" validate:"gte=0"`
	HostelType      string            `json:"hostelType" validate:"required,oneof=boys girls"`
	StudentsPerRoom int               `json:"studentsPerRoom" validate:"gte=1,lte=12"`
	Food            bool              `json:"food"`
	RentStructure   []models.RentSlab `json:"rentStructure" validate:"dive"`
}

// HostelScope narrows a listing. Zero value lists everything.
type HostelScope struct {
	OwnerID      string
	VerifiedOnly bool
}

const hostelColumns = `
SELECT h.id, h.owner_id, o.name AS owner_name, h.name, h.address, h.beds, h.hostel_type,
       h.students_per_room, h.food, h.verified, h.created_at
FROM hostels h
LEFT JOIN owners o ON o.id = h.owner_id
`

func ListHostels(db *sqlx.DB, scope HostelScope) ([]models.Hostel, error) {
	where := []string{}
	args := []interface{}{}
	if scope.OwnerID != "" {
		args = append(args, scope.OwnerID)
		where = append(where, "h.owner_id = $1")
	}
	if scope.VerifiedOnly {
		where = append(where, "h.verified = TRUE")
	}
	query := hostelColumns
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY h.created_at DESC"
	rows := []models.HostelRow{}
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	return hydrateHostels(db, rows)
}

func GetHostel(db *sqlx.DB, hostelID string) (models.Hostel, error) {
	row := models.HostelRow{}
	err := db.Get(&row, hostelColumns+"WHERE h.id = $1", hostelID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Hostel{}, ErrNotFound("Hostel not found")
	}
	if err != nil {
		return models.Hostel{}, err
	}
	hostels, err := hydrateHostels(db, []models.HostelRow{row})
	if err != nil {
		return models.Hostel{}, err
	}
	return hostels[0], nil
}

// hydrateHostels attaches rent slabs and feedback with one query each.
func hydrateHostels(db *sqlx.DB, rows []models.HostelRow) ([]models.Hostel, error) {
	hostels := make([]models.Hostel, 0, len(rows))
	if len(rows) == 0 {
		return hostels, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	rents := []struct {
		HostelID string `db:"hostel_id"`
		models.RentSlab
	}{}
	query, args, err := sqlx.In(`
SELECT hostel_id, students_per_room, rent_per_student
FROM hostel_rents WHERE hostel_id IN (?)
ORDER BY students_per_room
`, ids)
	if err != nil {
		return nil, err
	}
	if err := db.Select(&rents, db.Rebind(query), args...); err != nil {
		return nil, err
	}
	rentsBy := map[string][]models.RentSlab{}
	for _, rent := range rents {
		rentsBy[rent.HostelID] = append(rentsBy[rent.HostelID], rent.RentSlab)
	}

	feedback := []struct {
		HostelID string `db:"hostel_id"`
		models.Feedback
	}{}
	query, args, err = sqlx.In(`
SELECT hostel_id, student_id, rating, comment
FROM hostel_feedback WHERE hostel_id IN (?)
ORDER BY created_at
`, ids)
	if err != nil {
		return nil, err
	}
	if err := db.Select(&feedback, db.Rebind(query), args...); err != nil {
		return nil, err
	}
	feedbackBy := map[string][]models.Feedback{}
	for _, fb := range feedback {
		feedbackBy[fb.HostelID] = append(feedbackBy[fb.HostelID], fb.Feedback)
	}

	for _, row := range rows {
		created := row.CreatedAt
		hostel := models.Hostel{
			ID:              row.ID,
			OwnerID:         deref(row.OwnerID),
			OwnerName:       deref(row.OwnerName),
			Name:            row.Name,
			Address:         row.Address,
			Beds:            row.Beds,
			HostelType:      row.HostelType,
			StudentsPerRoom: row.StudentsPerRoom,
			Food:            row.Food,
			Verified:        row.Verified,
			RentStructure:   rentsBy[row.ID],
			Feedback:        feedbackBy[row.ID],
			Images:          []models.Image{},
			CreatedAt:       &created,
		}
		if hostel.RentStructure == nil {
			hostel.RentStructure = []models.RentSlab{}
		}
		if hostel.Feedback == nil {
			hostel.Feedback = []models.Feedback{}
		}
		hostels = append(hostels, hostel)
	}
	return hostels, nil
}

func CreateHostel(db *sqlx.DB, ownerID string, input HostelInput) (models.Hostel, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	tx, err := db.Beginx()
	if err != nil {
		return models.Hostel{}, err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`
INSERT INTO hostels (id, owner_id, name, address, beds, hostel_type, students_per_room, food, verified, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,FALSE,$9,$9)
`, id, ownerID, strings.TrimSpace(input.Name), strings.TrimSpace(input.Address), input.Beds,
		strings.ToLower(input.HostelType), input.StudentsPerRoom, input.Food, now); err != nil {
		return models.Hostel{}, err
	}
	if err := replaceRents(tx, id, input.RentStructure); err != nil {
		return models.Hostel{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Hostel{}, err
	}
	return GetHostel(db, id)
}

// UpdateHostel rewrites a hostel. A non-empty ownerID restricts the update to
// hostels that owner manages.
func UpdateHostel(db *sqlx.DB, hostelID, ownerID string, input HostelInput) (models.Hostel, error) {
	tx, err := db.Beginx()
	if err != nil {
		return models.Hostel{}, err
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.Exec(`
UPDATE hostels
SET name = $2, address = $3, beds = $4, hostel_type = $5, students_per_room = $6, food = $7, updated_at = $8
WHERE id = $1 AND ($9 = '' OR owner_id = $9)
`, hostelID, strings.TrimSpace(input.Name), strings.TrimSpace(input.Address), input.Beds,
		strings.ToLower(input.HostelType), input.StudentsPerRoom, input.Food, time.Now().UTC(), ownerID)
	if err != nil {
		return models.Hostel{}, err
	}
	if err := requireAffected(res, "Hostel not found"); err != nil {
		return models.Hostel{}, err
	}
	if input.RentStructure != nil {
		if err := replaceRents(tx, hostelID, input.RentStructure); err != nil {
			return models.Hostel{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Hostel{}, err
	}
	return GetHostel(db, hostelID)
}

func replaceRents(tx *sqlx.Tx, hostelID string, slabs []models.RentSlab) error {
	if _, err := tx.Exec(`DELETE FROM hostel_rents WHERE hostel_id = $1`, hostelID); err != nil {
		return err
	}
	seen := map[int]bool{}
	for _, slab := range slabs {
		if slab.StudentsPerRoom < 1 || slab.RentPerStudent < 0 {
			return ErrBadRequest("Invalid rent structure")
		}
		if seen[slab.StudentsPerRoom] {
			return ErrBadRequest("Duplicate rent for the same room size")
		}
		seen[slab.StudentsPerRoom] = true
		if _, err := tx.Exec(`
INSERT INTO hostel_rents (hostel_id, students_per_room, rent_per_student) VALUES ($1,$2,$3)
`, hostelID, slab.StudentsPerRoom, slab.RentPerStudent); err != nil {
			return err
		}
	}
	return nil
}

func VerifyHostel(db *sqlx.DB, hostelID string, verified bool) (models.Hostel, error) {
	res, err := db.Exec(`UPDATE hostels SET verified = $2, updated_at = $3 WHERE id = $1`, hostelID, verified, time.Now().UTC())
	if err != nil {
		return models.Hostel{}, err
	}
	if err := requireAffected(res, "Hostel not found"); err != nil {
		return models.Hostel{}, err
	}
	return GetHostel(db, hostelID)
}

// DeleteHostel removes the hostel and its photo files.
func DeleteHostel(db *sqlx.DB, basePath, hostelID string) error {
	mediaIDs := []string{}
	if err := db.Select(&mediaIDs, `SELECT media_id FROM hostel_images WHERE hostel_id = $1`, hostelID); err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM hostels WHERE id = $1`, hostelID)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "Hostel not found"); err != nil {
		return err
	}
	for _, id := range mediaIDs {
		if err := DeleteAsset(db, basePath, id); err != nil {
			log.Printf("delete hostel %s photo %s: %v", hostelID, id, err)
		}
	}
	return nil
}

func HostelOwnedBy(db *sqlx.DB, hostelID, ownerID string) (bool, error) {
	var owned bool
	err := db.Get(&owned, `SELECT EXISTS(SELECT 1 FROM hostels WHERE id = $1 AND owner_id = $2)`, hostelID, ownerID)
	return owned, err
}

func AddHostelImage(db *sqlx.DB, hostelID, mediaID string) error {
	_, err := db.Exec(`
INSERT INTO hostel_images (hostel_id, media_id, sort_order)
VALUES ($1, $2, (SELECT COALESCE(MAX(sort_order), -1) + 1 FROM hostel_images WHERE hostel_id = $1))
`, hostelID, mediaID)
	return err
}

func HostelImageIDs(db *sqlx.DB, hostelID string) ([]string, error) {
	ids := []string{}
	err := db.Select(&ids, `SELECT media_id FROM hostel_images WHERE hostel_id = $1 ORDER BY sort_order`, hostelID)
	return ids, err
}

// HostelPhotos loads every image of one hostel. A broken file is skipped.
func HostelPhotos(db *sqlx.DB, basePath, hostelID string) ([]models.Image, error) {
	ids, err := HostelImageIDs(db, hostelID)
	if err != nil {
		return nil, err
	}
	images := make([]models.Image, 0, len(ids))
	for _, id := range ids {
		image, err := LoadImage(db, basePath, id)
		if err != nil {
			log.Printf("load photo %s for hostel %s: %v", id, hostelID, err)
			continue
		}
		images = append(images, image)
	}
	return images, nil
}

// PhotoLoader fetches the images of one hostel.
type PhotoLoader func(ctx context.Context, hostelID string) ([]models.Image, error)

// AttachPhotos fills Images on every hostel concurrently. A failed load leaves
// that hostel with an empty list and does not cancel its siblings.
func AttachPhotos(ctx context.Context, hostels []models.Hostel, load PhotoLoader) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(photoWorkers)
	for i := range hostels {
		i := i
		g.Go(func() error {
			images, err := load(ctx, hostels[i].ID)
			if err != nil {
				log.Printf("photos for hostel %s: %v", hostels[i].ID, err)
				images = nil
			}
			if images == nil {
				images = []models.Image{}
			}
			hostels[i].Images = images
			return nil
		})
	}
	_ = g.Wait()
}

func DBPhotoLoader(db *sqlx.DB, basePath string) PhotoLoader {
	return func(ctx context.Context, hostelID string) ([]models.Image, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return HostelPhotos(db, basePath, hostelID)
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
