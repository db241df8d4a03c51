package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/isdelr/taskmanager/internal/apperrors"
	"github.com/isdelr/taskmanager/internal/models"
)

// TaskServiceProvider defines the interface for the task repository.
type TaskServiceProvider interface {
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	CreateTask(ctx context.Context, userID, title string) (models.Task, error)
}

// TaskFilter narrows ListTasks. The zero value selects every task.
type TaskFilter struct {
	OwnerID string
}

// TaskService provides access to the tasks table.
type TaskService struct {
	db  *sql.DB
	now func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db, now: time.Now}
}

// ListTasks returns tasks newest first (by descending ID).
func (s *TaskService) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := "SELECT id, user_id, title, created_at FROM tasks"
	var args []any
	if filter.OwnerID != "" {
		query += " WHERE user_id = ?"
		args = append(args, filter.OwnerID)
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &apperrors.DataError{Op: "list tasks", Err: err}
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var (
			task      models.Task
			userID    sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&task.ID, &userID, &task.Title, &createdAt); err != nil {
			return nil, &apperrors.DataError{Op: "scan task", Err: err}
		}
		if userID.Valid {
			owner := userID.String
			task.UserID = &owner
		}
		task.CreatedAt = time.Unix(createdAt, 0)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, &apperrors.DataError{Op: "list tasks", Err: err}
	}
	return tasks, nil
}

// CreateTask inserts a task owned by userID.
func (s *TaskService) CreateTask(ctx context.Context, userID, title string) (models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, &apperrors.DataError{Op: "create task", Err: apperrors.ErrTitleRequired}
	}

	task := models.Task{Title: title, CreatedAt: s.now()}
	var owner any
	if userID != "" {
		task.UserID = &userID
		owner = userID
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (user_id, title, created_at) VALUES (?, ?, ?)",
		owner, task.Title, task.CreatedAt.Unix())
	if err != nil {
		return models.Task{}, &apperrors.DataError{Op: "create task", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, &apperrors.DataError{Op: "create task", Err: err}
	}
	task.ID = id
	return task, nil
}
