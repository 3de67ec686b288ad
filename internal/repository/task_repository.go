package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"task-management-api/internal/apperror"
	"task-management-api/internal/models"
)

const taskColumns = "id, user_id, title, description, status, created_at, updated_at"

// MaxTitleLength is the size of the tasks.title column, in characters.
const MaxTitleLength = 255

var errTitleTooLong = apperror.FieldError("title",
	fmt.Sprintf("The title field must not be greater than %d characters.", MaxTitleLength))

// TaskRepository stores tasks in PostgreSQL.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ValidateTask checks the fields required before a task is written.
func ValidateTask(task *models.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return apperror.FieldError("title", "The title field is required.")
	}
	if utf8.RuneCountInString(task.Title) > MaxTitleLength {
		return errTitleTooLong
	}
	if !task.Status.Valid() {
		return apperror.FieldError("status", "The selected status is invalid.")
	}
	return nil
}

// ValidatePatch checks the fields present in patch.
func ValidatePatch(patch models.TaskPatch) error {
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return apperror.FieldError("title", "The title field must not be empty.")
		}
		if utf8.RuneCountInString(*patch.Title) > MaxTitleLength {
			return errTitleTooLong
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return apperror.FieldError("status", "The selected status is invalid.")
	}
	return nil
}

// Create inserts task and fills in its generated id and timestamps.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := ValidateTask(task); err != nil {
		return err
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tasks (user_id, title, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		task.UserID, task.Title, task.Description, string(task.Status),
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int) (*models.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("Task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) ListAll(ctx context.Context) ([]models.Task, error) {
	return r.list(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY id")
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID int) ([]models.Task, error) {
	return r.list(ctx, "SELECT "+taskColumns+" FROM tasks WHERE user_id = $1 ORDER BY id", ownerID)
}

// Update mengubah hanya field yang dikirim, lalu mengembalikan task terbaru.
func (r *TaskRepository) Update(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error) {
	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	task, err := scanTask(r.db.QueryRowContext(ctx,
		`UPDATE tasks
		SET title = COALESCE($1, title),
			description = CASE WHEN $5 THEN NULL ELSE COALESCE($2, description) END,
			status = COALESCE($3, status),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
		RETURNING `+taskColumns,
		patch.Title, patch.Description, status, id, patch.ClearDescription,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("Task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("Task not found")
	}
	return nil
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
