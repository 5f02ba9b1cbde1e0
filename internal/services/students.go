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

type StudentUpdate struct {
	Name          *string `json:"name" validate:"omitempty,min=2,max=80"`
	Contact       *string `json:"contact" validate:"omitempty,phone"`
	FatherName    *string `json:"fatherName" validate:"omitempty,min=2"`
	FatherContact *string `json:"fatherContact" validate:"omitempty,phone"`
	College       *string `json:"college"`
	Course        *string `json:"course" validate:"omitempty,max=80"`
	Address       *string `json:"address" validate:"omitempty,min=5"`
}

const studentColumns = `
SELECT s.id, s.name, u.email, s.contact, s.father_name, s.father_contact, s.college, s.course, s.address,
       s.wishlist_submitted, s.wishlist_approved, s.admitted_hostel_id, s.admission_receipt_media_id, s.cashback_applied
FROM students s
JOIN users u ON u.id = s.id
`

func InsertStudentProfile(tx *sqlx.Tx, userID string, form RegistrationForm) error {
	now := time.Now().UTC()
	_, err := tx.Exec(`
INSERT INTO students (id, name, contact, father_name, father_contact, college, course, address, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
`, userID, strings.TrimSpace(form.Name), strings.TrimSpace(form.Contact), strings.TrimSpace(form.FatherName),
		strings.TrimSpace(form.FatherContact), strings.TrimSpace(form.College), strings.TrimSpace(form.Course),
		strings.TrimSpace(form.Address), now)
	return err
}

func GetStudent(db *sqlx.DB, studentID string) (models.Student, error) {
	student := models.Student{}
	err := db.Get(&student, studentColumns+"WHERE s.id = $1", studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Student{}, ErrNotFound("Student not found")
	}
	if err != nil {
		return models.Student{}, err
	}
	students := []models.Student{student}
	if err := attachStudentLists(db, students); err != nil {
		return models.Student{}, err
	}
	return students[0], nil
}

func ListStudents(db *sqlx.DB) ([]models.Student, error) {
	students := []models.Student{}
	if err := db.Select(&students, studentColumns+"ORDER BY s.created_at DESC"); err != nil {
		return nil, err
	}
	if err := attachStudentLists(db, students); err != nil {
		return nil, err
	}
	return students, nil
}

func attachStudentLists(db *sqlx.DB, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	entries := []struct {
		StudentID string `db:"student_id"`
		HostelID  string `db:"hostel_id"`
	}{}
	query, args, err := sqlx.In(`
SELECT student_id, hostel_id FROM student_wishlist WHERE student_id IN (?) ORDER BY added_at
`, ids)
	if err != nil {
		return err
	}
	if err := db.Select(&entries, db.Rebind(query), args...); err != nil {
		return err
	}
	wishlists := map[string][]string{}
	for _, e := range entries {
		wishlists[e.StudentID] = append(wishlists[e.StudentID], e.HostelID)
	}

	visits := []struct {
		StudentID string `db:"student_id"`
		HostelID  string `db:"hostel_id"`
		Status    string `db:"status"`
	}{}
	query, args, err = sqlx.In(`
SELECT student_id, hostel_id, status FROM visits WHERE student_id IN (?) ORDER BY created_at
`, ids)
	if err != nil {
		return err
	}
	if err := db.Select(&visits, db.Rebind(query), args...); err != nil {
		return err
	}
	visitsBy := map[string][]models.HostelVisit{}
	for _, v := range visits {
		visitsBy[v.StudentID] = append(visitsBy[v.StudentID], models.HostelVisit{HostelID: v.HostelID, Status: v.Status})
	}

	for i := range students {
		students[i].Wishlist = wishlists[students[i].ID]
		if students[i].Wishlist == nil {
			students[i].Wishlist = []string{}
		}
		students[i].HostelVisits = visitsBy[students[i].ID]
		if students[i].HostelVisits == nil {
			students[i].HostelVisits = []models.HostelVisit{}
		}
	}
	return nil
}

func UpdateStudent(db *sqlx.DB, studentID string, update StudentUpdate) (models.Student, error) {
	res, err := db.Exec(`
UPDATE students SET
  name = COALESCE($2, name),
  contact = COALESCE($3, contact),
  father_name = COALESCE($4, father_name),
  father_contact = COALESCE($5, father_contact),
  college = COALESCE($6, college),
  course = COALESCE($7, course),
  address = COALESCE($8, address),
  updated_at = $9
WHERE id = $1
`, studentID, trimPtr(update.Name), trimPtr(update.Contact), trimPtr(update.FatherName), trimPtr(update.FatherContact),
		trimPtr(update.College), trimPtr(update.Course), trimPtr(update.Address), time.Now().UTC())
	if err != nil {
		return models.Student{}, err
	}
	if err := requireAffected(res, "Student not found"); err != nil {
		return models.Student{}, err
	}
	return GetStudent(db, studentID)
}

// lockStudent reads the workflow flags and holds the row until tx ends, so
// concurrent workflow calls for one student are serialized.
func lockStudent(tx *sqlx.Tx, studentID string) (StudentFlags, error) {
	row := struct {
		Submitted bool    `db:"wishlist_submitted"`
		Approved  bool    `db:"wishlist_approved"`
		Admitted  *string `db:"admitted_hostel_id"`
	}{}
	err := tx.Get(&row, `
SELECT wishlist_submitted, wishlist_approved, admitted_hostel_id
FROM students WHERE id = $1 FOR UPDATE
`, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return StudentFlags{}, ErrNotFound("Student not found")
	}
	if err != nil {
		return StudentFlags{}, err
	}
	return StudentFlags{WishlistSubmitted: row.Submitted, WishlistApproved: row.Approved, AdmittedHostel: row.Admitted}, nil
}

// inStudentTx runs fn with the student row locked and commits on success.
func inStudentTx(db *sqlx.DB, studentID string, fn func(tx *sqlx.Tx, flags StudentFlags) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	flags, err := lockStudent(tx, studentID)
	if err != nil {
		return err
	}
	if err := fn(tx, flags); err != nil {
		return err
	}
	return tx.Commit()
}

func WishlistIDs(db sqlx.Queryer, studentID string) ([]string, error) {
	ids := []string{}
	err := sqlx.Select(db, &ids, `SELECT hostel_id FROM student_wishlist WHERE student_id = $1 ORDER BY added_at`, studentID)
	return ids, err
}

func WishlistCount(db *sqlx.DB, studentID string) (int, error) {
	var count int
	err := db.Get(&count, `SELECT count(*) FROM student_wishlist WHERE student_id = $1`, studentID)
	return count, err
}

// WishlistHostels returns the full hostel documents on a student's wishlist
// in the order they were added.
func WishlistHostels(db *sqlx.DB, studentID string) ([]models.Hostel, error) {
	ids, err := WishlistIDs(db, studentID)
	if err != nil {
		return nil, err
	}
	hostels := make([]models.Hostel, 0, len(ids))
	for _, id := range ids {
		hostel, err := GetHostel(db, id)
		if _, ok := AsServiceError(err); ok {
			continue
		}
		if err != nil {
			return nil, err
		}
		hostels = append(hostels, hostel)
	}
	return hostels, nil
}

func inWishlist(tx *sqlx.Tx, studentID, hostelID string) (bool, error) {
	var exists bool
	err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM student_wishlist WHERE student_id = $1 AND hostel_id = $2)`, studentID, hostelID)
	return exists, err
}

// AddToWishlist appends hostelID unless the list already holds limit
// entries. Adding a hostel that is already listed is a no-op.
func AddToWishlist(db *sqlx.DB, studentID, hostelID string, limit int) ([]string, error) {
	var ids []string
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if err := RequireAction(flags, ActionAddToWishlist); err != nil {
			return err
		}
		var hostelExists bool
		if err := tx.Get(&hostelExists, `SELECT EXISTS(SELECT 1 FROM hostels WHERE id = $1)`, hostelID); err != nil {
			return err
		}
		if !hostelExists {
			return ErrNotFound("Hostel not found")
		}
		current, err := WishlistIDs(tx, studentID)
		if err != nil {
			return err
		}
		for _, id := range current {
			if id == hostelID {
				ids = current
				return nil
			}
		}
		if !CanAddToWishlist(len(current), limit) {
			return ErrConflict("Wishlist is full")
		}
		if _, err := tx.Exec(`
INSERT INTO student_wishlist (student_id, hostel_id, added_at) VALUES ($1,$2,$3)
`, studentID, hostelID, time.Now().UTC()); err != nil {
			return err
		}
		ids = append(current, hostelID)
		return nil
	})
	return ids, err
}

func RemoveFromWishlist(db *sqlx.DB, studentID, hostelID string) ([]string, error) {
	var ids []string
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if err := RequireAction(flags, ActionRemoveFromWishlist); err != nil {
			return err
		}
		return removeWishlistEntry(tx, studentID, hostelID, &ids)
	})
	return ids, err
}

// AdminRemoveFromWishlist drops an entry regardless of workflow state. An
// emptied wishlist returns the student to browsing.
func AdminRemoveFromWishlist(db *sqlx.DB, studentID, hostelID string) ([]string, error) {
	var ids []string
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if err := removeWishlistEntry(tx, studentID, hostelID, &ids); err != nil {
			return err
		}
		if len(ids) == 0 && StudentStateOf(flags) != StateAdmitted {
			_, err := tx.Exec(`
UPDATE students SET wishlist_submitted = FALSE, wishlist_approved = FALSE, updated_at = $2 WHERE id = $1
`, studentID, time.Now().UTC())
			return err
		}
		return nil
	})
	return ids, err
}

func removeWishlistEntry(tx *sqlx.Tx, studentID, hostelID string, ids *[]string) error {
	res, err := tx.Exec(`DELETE FROM student_wishlist WHERE student_id = $1 AND hostel_id = $2`, studentID, hostelID)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "Hostel is not in the wishlist"); err != nil {
		return err
	}
	current, err := WishlistIDs(tx, studentID)
	if err != nil {
		return err
	}
	*ids = current
	return nil
}

func SubmitWishlist(db *sqlx.DB, studentID string) (models.Student, error) {
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if err := RequireAction(flags, ActionSubmitWishlist); err != nil {
			return err
		}
		current, err := WishlistIDs(tx, studentID)
		if err != nil {
			return err
		}
		if len(current) == 0 {
			return ErrBadRequest("Wishlist is empty")
		}
		_, err = tx.Exec(`UPDATE students SET wishlist_submitted = TRUE, updated_at = $2 WHERE id = $1`, studentID, time.Now().UTC())
		return err
	})
	if err != nil {
		return models.Student{}, err
	}
	return GetStudent(db, studentID)
}

func ApproveWishlist(db *sqlx.DB, studentID string) (models.Student, error) {
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if StudentStateOf(flags) != StateUnderReview {
			return ErrConflict("Wishlist is not awaiting approval")
		}
		_, err := tx.Exec(`UPDATE students SET wishlist_approved = TRUE, updated_at = $2 WHERE id = $1`, studentID, time.Now().UTC())
		return err
	})
	if err != nil {
		return models.Student{}, err
	}
	return GetStudent(db, studentID)
}

func requireWishlisted(tx *sqlx.Tx, studentID, hostelID string) error {
	listed, err := inWishlist(tx, studentID, hostelID)
	if err != nil {
		return err
	}
	if !listed {
		return ErrBadRequest("Hostel is not in the wishlist")
	}
	return nil
}

func TakeAdmission(db *sqlx.DB, studentID, hostelID string) (models.Student, error) {
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if err := RequireAction(flags, ActionTakeAdmission); err != nil {
			return err
		}
		if err := requireWishlisted(tx, studentID, hostelID); err != nil {
			return err
		}
		var status sql.NullString
		if err := tx.Get(&status, `SELECT status FROM visits WHERE student_id = $1 AND hostel_id = $2`, studentID, hostelID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if status.Valid && status.String == models.VisitNotInterested {
			return ErrConflict("Hostel was marked not interested")
		}
		_, err := tx.Exec(`UPDATE students SET admitted_hostel_id = $2, updated_at = $3 WHERE id = $1`, studentID, hostelID, time.Now().UTC())
		return err
	})
	if err != nil {
		return models.Student{}, err
	}
	return GetStudent(db, studentID)
}

func MarkNotInterested(db *sqlx.DB, studentID, hostelID string) (models.Student, error) {
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if err := RequireAction(flags, ActionNotInterested); err != nil {
			return err
		}
		if err := requireWishlisted(tx, studentID, hostelID); err != nil {
			return err
		}
		email, err := studentEmail(tx, studentID)
		if err != nil {
			return err
		}
		return upsertVisit(tx, studentID, hostelID, "", "", email, models.VisitNotInterested)
	})
	if err != nil {
		return models.Student{}, err
	}
	return GetStudent(db, studentID)
}

// AttachReceipt stores the admission receipt and returns the media id it
// replaced, if any.
func AttachReceipt(db *sqlx.DB, studentID, mediaID string) (string, error) {
	var previous string
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if err := RequireAction(flags, ActionUploadReceipt); err != nil {
			return err
		}
		var old *string
		if err := tx.Get(&old, `SELECT admission_receipt_media_id FROM students WHERE id = $1`, studentID); err != nil {
			return err
		}
		previous = deref(old)
		_, err := tx.Exec(`
UPDATE students SET admission_receipt_media_id = $2, cashback_applied = FALSE, updated_at = $3 WHERE id = $1
`, studentID, mediaID, time.Now().UTC())
		return err
	})
	return previous, err
}

func ApplyCashback(db *sqlx.DB, studentID string, applied bool) (models.Student, error) {
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if StudentStateOf(flags) != StateAdmitted {
			return ErrConflict("Student is not admitted")
		}
		var receipt *string
		if err := tx.Get(&receipt, `SELECT admission_receipt_media_id FROM students WHERE id = $1`, studentID); err != nil {
			return err
		}
		if applied && receipt == nil {
			return ErrConflict("Admission receipt has not been uploaded")
		}
		_, err := tx.Exec(`UPDATE students SET cashback_applied = $2, updated_at = $3 WHERE id = $1`, studentID, applied, time.Now().UTC())
		return err
	})
	if err != nil {
		return models.Student{}, err
	}
	return GetStudent(db, studentID)
}

type FeedbackInput struct {
	HostelID string `json:"hostelId" validate:"required"`
	Rating   int    `json:"rating" validate:"gte=0,lte=5"`
	Comment  string `json:"comment" validate:"max=1000"`
}

// SubmitFeedback records or replaces the student's review of the hostel they
// were admitted to.
func SubmitFeedback(db *sqlx.DB, studentID string, input FeedbackInput) (models.Hostel, error) {
	err := inStudentTx(db, studentID, func(tx *sqlx.Tx, flags StudentFlags) error {
		if err := RequireAction(flags, ActionSubmitFeedback); err != nil {
			return err
		}
		if *flags.AdmittedHostel != input.HostelID {
			return ErrForbidden("Feedback is limited to your admitted hostel")
		}
		_, err := tx.Exec(`
INSERT INTO hostel_feedback (id, hostel_id, student_id, rating, comment, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (hostel_id, student_id) DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, created_at = EXCLUDED.created_at
`, uuid.NewString(), input.HostelID, studentID, input.Rating, strings.TrimSpace(input.Comment), time.Now().UTC())
		return err
	})
	if err != nil {
		return models.Hostel{}, err
	}
	return GetHostel(db, input.HostelID)
}

func studentEmail(q sqlx.Queryer, studentID string) (string, error) {
	var email string
	err := sqlx.Get(q, &email, `SELECT email FROM users WHERE id = $1`, studentID)
	return email, err
}
