package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hostelhub-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func FetchRoles(db sqlx.Queryer, userID string) ([]string, error) {
	roles := []string{}
	err := sqlx.Select(db, &roles, `
SELECT r.code
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1
ORDER BY r.code
`, userID)
	return roles, err
}

func HasRole(db *sqlx.DB, userID, role string) (bool, error) {
	var exists bool
	err := db.Get(&exists, `
SELECT EXISTS(
  SELECT 1
  FROM roles r
  JOIN user_roles ur ON ur.role_id = r.id
  WHERE ur.user_id = $1 AND r.code = $2
)
`, userID, role)
	return exists, err
}

// PrimaryRole picks the role reported to clients at login.
func PrimaryRole(roles []string) string {
	for _, preferred := range []string{models.RoleAdmin, models.RoleOwner, models.RoleStudent} {
		for _, role := range roles {
			if role == preferred {
				return role
			}
		}
	}
	if len(roles) > 0 {
		return roles[0]
	}
	return models.RoleStudent
}

func TouchLastSeen(db *sqlx.DB, userID string) error {
	_, err := db.Exec(`UPDATE users SET last_seen_at = $1 WHERE id = $2`, time.Now().UTC(), userID)
	return err
}

func SetLastLogin(db *sqlx.DB, userID string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE users SET last_login_at = $1, last_seen_at = $1 WHERE id = $2`, now, userID)
	return err
}

func GetUserStatus(db *sqlx.DB, userID string) (string, error) {
	var status sql.NullString
	err := db.Get(&status, `SELECT status FROM users WHERE id = $1`, userID)
	if err != nil {
		return "", err
	}
	if status.Valid {
		return status.String, nil
	}
	return "", nil
}

func GetUser(db *sqlx.DB, userID string) (models.User, error) {
	user := models.User{}
	err := db.Get(&user, `
SELECT id, email, password_hash, status, is_email_verified, created_at, updated_at, last_login_at, last_seen_at
FROM users WHERE id = $1
`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	return user, err
}

func FindUserByEmail(db *sqlx.DB, email string) (models.User, error) {
	user := models.User{}
	err := db.Get(&user, `
SELECT id, email, password_hash, status, is_email_verified, created_at, updated_at, last_login_at, last_seen_at
FROM users WHERE lower(email) = $1
`, NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound("User not found")
	}
	return user, err
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// InsertUser creates the users row and grants role inside tx.
func InsertUser(tx *sqlx.Tx, email, passwordHash, status, role string) (string, error) {
	userID := uuid.NewString()
	now := time.Now().UTC()
	if _, err := tx.Exec(`
INSERT INTO users (id, email, password_hash, status, is_email_verified, created_at, updated_at)
VALUES ($1,$2,$3,$4,FALSE,$5,$5)
`, userID, NormalizeEmail(email), passwordHash, status, now); err != nil {
		return "", err
	}
	if err := grantRole(tx, userID, role); err != nil {
		return "", err
	}
	return userID, nil
}

func grantRole(tx sqlx.Ext, userID, role string) error {
	var roleID string
	err := sqlx.Get(tx, &roleID, `SELECT id FROM roles WHERE code = $1`, NormalizeRoleName(role))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound("Role not found")
	}
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
INSERT INTO user_roles (id, user_id, role_id, assigned_at) VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id, role_id) DO NOTHING
`, uuid.NewString(), userID, roleID, time.Now().UTC())
	return err
}

func AssignUserRole(db *sqlx.DB, userID, role string) error {
	if _, err := GetUser(db, userID); err != nil {
		return err
	}
	return grantRole(db, userID, role)
}

func RemoveUserRole(db *sqlx.DB, userID, role string) error {
	res, err := db.Exec(`
DELETE FROM user_roles
WHERE user_id = $1 AND role_id = (SELECT id FROM roles WHERE code = $2)
`, userID, NormalizeRoleName(role))
	if err != nil {
		return err
	}
	return requireAffected(res, "Role assignment not found")
}

var userStatuses = map[string]bool{
	models.UserStatusPending:  true,
	models.UserStatusActive:   true,
	models.UserStatusDisabled: true,
}

func SetUserStatus(db *sqlx.DB, userID, status string) error {
	status = strings.ToUpper(strings.TrimSpace(status))
	if !userStatuses[status] {
		return ErrBadRequest("Unknown status " + status)
	}
	res, err := db.Exec(`UPDATE users SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireAffected(res, "User not found")
}

// ActivateUser marks a pending account active with a verified email.
func ActivateUser(db *sqlx.DB, userID string) error {
	res, err := db.Exec(`
UPDATE users SET status = $1, is_email_verified = TRUE, updated_at = $2
WHERE id = $3 AND status <> $4
`, models.UserStatusActive, time.Now().UTC(), userID, models.UserStatusDisabled)
	if err != nil {
		return err
	}
	return requireAffected(res, "User not found")
}

func MarkEmailVerified(db *sqlx.DB, email string) error {
	res, err := db.Exec(`UPDATE users SET is_email_verified = TRUE, updated_at = $1 WHERE lower(email) = $2`, time.Now().UTC(), NormalizeEmail(email))
	if err != nil {
		return err
	}
	return requireAffected(res, "User not found")
}

func SetPassword(db *sqlx.DB, userID, passwordHash string) error {
	res, err := db.Exec(`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, passwordHash, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireAffected(res, "User not found")
}

type AdminUser struct {
	ID          string     `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Status      string     `json:"status" db:"status"`
	Name        *string    `json:"name,omitempty" db:"name"`
	PrimaryRole string     `json:"primaryRole" db:"-"`
	Roles       []string   `json:"roles" db:"-"`
	CreatedAt   *time.Time `json:"createdAt,omitempty" db:"created_at"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	LastSeenAt  *time.Time `json:"lastSeenAt,omitempty" db:"last_seen_at"`
}

type UserPage struct {
	Items    []AdminUser `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// ListUsers pages through accounts, matching search against email and the
// student or owner display name.
func ListUsers(db *sqlx.DB, search string, page, pageSize int) (UserPage, error) {
	args := []interface{}{}
	where := ""
	if search = strings.TrimSpace(search); search != "" {
		where = "WHERE lower(u.email) LIKE $1 OR lower(COALESCE(s.name, o.name, '')) LIKE $1"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	from := `
FROM users u
LEFT JOIN students s ON s.id = u.id
LEFT JOIN owners o ON o.id = u.id
`
	var total int
	if err := db.Get(&total, "SELECT count(*) "+from+where, args...); err != nil {
		return UserPage{}, err
	}
	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`
SELECT u.id, u.email, u.status, COALESCE(s.name, o.name) AS name, u.created_at, u.last_login_at, u.last_seen_at
`+from+where+`
ORDER BY u.created_at DESC
LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	items := []AdminUser{}
	if err := db.Select(&items, query, args...); err != nil {
		return UserPage{}, err
	}
	for i := range items {
		roles, err := FetchRoles(db, items[i].ID)
		if err != nil {
			return UserPage{}, err
		}
		items[i].Roles = roles
		items[i].PrimaryRole = PrimaryRole(roles)
	}
	return UserPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// ProfileID resolves the student or owner profile for a user; profiles share
// the user's id.
func ProfileID(db *sqlx.DB, userID, role string) (string, error) {
	var table string
	switch role {
	case models.RoleStudent:
		table = "students"
	case models.RoleOwner:
		table = "owners"
	default:
		return userID, nil
	}
	var id string
	err := db.Get(&id, `SELECT id FROM `+table+` WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound("Profile not found")
	}
	return id, err
}
