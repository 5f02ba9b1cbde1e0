package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"hostelhub-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

type OwnerUpdate struct {
	Name    *string `json:"name" validate:"omitempty,min=2,max=80"`
	Contact *string `json:"contact" validate:"omitempty,phone"`
	Address *string `json:"address" validate:"omitempty,min=5"`
	Status  *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

const ownerColumns = `
SELECT o.id, o.name, u.email, o.contact, o.address, o.status
FROM owners o
JOIN users u ON u.id = o.id
`

func InsertOwnerProfile(tx *sqlx.Tx, userID string, form RegistrationForm) error {
	now := time.Now().UTC()
	_, err := tx.Exec(`
INSERT INTO owners (id, name, contact, address, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
`, userID, strings.TrimSpace(form.Name), strings.TrimSpace(form.Contact), strings.TrimSpace(form.Address),
		models.OwnerActive, now)
	return err
}

func ListOwners(db *sqlx.DB) ([]models.Owner, error) {
	owners := []models.Owner{}
	if err := db.Select(&owners, ownerColumns+"ORDER BY o.name"); err != nil {
		return nil, err
	}
	links := []struct {
		OwnerID  string `db:"owner_id"`
		HostelID string `db:"id"`
	}{}
	if err := db.Select(&links, `SELECT owner_id, id FROM hostels WHERE owner_id IS NOT NULL ORDER BY created_at`); err != nil {
		return nil, err
	}
	byOwner := map[string][]string{}
	for _, link := range links {
		byOwner[link.OwnerID] = append(byOwner[link.OwnerID], link.HostelID)
	}
	for i := range owners {
		owners[i].Hostels = byOwner[owners[i].ID]
		if owners[i].Hostels == nil {
			owners[i].Hostels = []string{}
		}
	}
	return owners, nil
}

func GetOwner(db *sqlx.DB, ownerID string) (models.Owner, error) {
	owner := models.Owner{}
	err := db.Get(&owner, ownerColumns+"WHERE o.id = $1", ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Owner{}, ErrNotFound("Owner not found")
	}
	if err != nil {
		return models.Owner{}, err
	}
	owner.Hostels = []string{}
	err = db.Select(&owner.Hostels, `SELECT id FROM hostels WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	return owner, err
}

func UpdateOwner(db *sqlx.DB, ownerID string, update OwnerUpdate) (models.Owner, error) {
	res, err := db.Exec(`
UPDATE owners SET
  name = COALESCE($2, name),
  contact = COALESCE($3, contact),
  address = COALESCE($4, address),
  status = COALESCE($5, status),
  updated_at = $6
WHERE id = $1
`, ownerID, trimPtr(update.Name), trimPtr(update.Contact), trimPtr(update.Address), trimPtr(update.Status), time.Now().UTC())
	if err != nil {
		return models.Owner{}, err
	}
	if err := requireAffected(res, "Owner not found"); err != nil {
		return models.Owner{}, err
	}
	return GetOwner(db, ownerID)
}

// RequireActiveOwner rejects owners an admin has deactivated.
func RequireActiveOwner(db *sqlx.DB, ownerID string) error {
	var status string
	err := db.Get(&status, `SELECT status FROM owners WHERE id = $1`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound("Owner not found")
	}
	if err != nil {
		return err
	}
	if status != models.OwnerActive {
		return ErrForbidden("Owner account is inactive")
	}
	return nil
}
