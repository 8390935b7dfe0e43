package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskmaster-solutions/ms-go-tasks/app/entity"
)

const taskSelectColumns = `id, user_id, title, description, due_date, priority, status, created_at, updated_at`

// TaskRepository scopes every statement by the owning user id. Callers
// cannot reach another user's rows through any method here, whatever the
// handlers above do.
type TaskRepository struct {
	db dbtx
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) WithTx(tx *sql.Tx) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID uint64) ([]*entity.Task, error) {
	query := `
		SELECT ` + taskSelectColumns + `
		FROM tasks WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*entity.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint64) (*entity.Task, error) {
	query := `SELECT ` + taskSelectColumns + ` FROM tasks WHERE id = ? AND user_id = ?`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, taskID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	query := `
		INSERT INTO tasks (user_id, title, description, due_date, priority, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		task.UserID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	task.ID = uint64(id)
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) error {
	query := `
		UPDATE tasks SET
			title = ?,
			description = ?,
			due_date = ?,
			priority = ?,
			status = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	task.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Status,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	return err
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint64) (int64, error) {
	query := `DELETE FROM tasks WHERE id = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*entity.Task, error) {
	task := &entity.Task{}
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Priority,
		&task.Status,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}
