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
	TaskOpen       = "open"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

type TaskInput struct {
	HostelID    string  `json:"hostelId" validate:"required"`
	StudentID   *string `json:"studentId"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
}

type TaskUpdate struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      *string `json:"status" validate:"omitempty,oneof=open in_progress done"`
}

const taskColumns = `
SELECT id, owner_id, hostel_id, student_id, title, description, status, created_at, updated_at
FROM tasks
`

func ListOwnerTasks(db *sqlx.DB, ownerID string) ([]models.Task, error) {
	tasks := []models.Task{}
	err := db.Select(&tasks, taskColumns+"WHERE owner_id = $1 ORDER BY created_at DESC", ownerID)
	return tasks, err
}

func CreateTask(db *sqlx.DB, ownerID string, input TaskInput) (models.Task, error) {
	owned, err := HostelOwnedBy(db, input.HostelID, ownerID)
	if err != nil {
		return models.Task{}, err
	}
	if !owned {
		return models.Task{}, ErrNotFound("Hostel not found")
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	if _, err := db.Exec(`
INSERT INTO tasks (id, owner_id, hostel_id, student_id, title, description, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
`, id, ownerID, input.HostelID, blankToNil(input.StudentID), strings.TrimSpace(input.Title),
		strings.TrimSpace(input.Description), TaskOpen, now); err != nil {
		return models.Task{}, err
	}
	return getTask(db, ownerID, id)
}

func UpdateTask(db *sqlx.DB, ownerID, taskID string, update TaskUpdate) (models.Task, error) {
	res, err := db.Exec(`
UPDATE tasks SET
  title = COALESCE($3, title),
  description = COALESCE($4, description),
  status = COALESCE($5, status),
  updated_at = $6
WHERE id = $1 AND owner_id = $2
`, taskID, ownerID, trimPtr(update.Title), trimPtr(update.Description), trimPtr(update.Status), time.Now().UTC())
	if err != nil {
		return models.Task{}, err
	}
	if err := requireAffected(res, "Task not found"); err != nil {
		return models.Task{}, err
	}
	return getTask(db, ownerID, taskID)
}

func getTask(db *sqlx.DB, ownerID, taskID string) (models.Task, error) {
	task := models.Task{}
	err := db.Get(&task, taskColumns+"WHERE id = $1 AND owner_id = $2", taskID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrNotFound("Task not found")
	}
	return task, err
}

func blankToNil(value *string) *string {
	value = trimPtr(value)
	if value == nil || *value == "" {
		return nil
	}
	return value
}
