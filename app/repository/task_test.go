package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/taskmaster-solutions/ms-go-tasks/app/entity"
	"github.com/taskmaster-solutions/ms-go-tasks/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

const (
	listTasksQuery  = `(?s)SELECT id, user_id, title, description, due_date, priority, status, created_at, updated_at\s+FROM tasks WHERE user_id = \?\s+ORDER BY created_at DESC, id DESC`
	findTaskQuery   = `SELECT id, user_id, title, description, due_date, priority, status, created_at, updated_at FROM tasks WHERE id = \? AND user_id = \?`
	insertTaskQuery = `(?s)INSERT INTO tasks \(user_id, title, description, due_date, priority, status, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?\)`
	updateTaskQuery = `(?s)UPDATE tasks SET\s+title = \?,\s+description = \?,\s+due_date = \?,\s+priority = \?,\s+status = \?,\s+updated_at = \?\s+WHERE id = \? AND user_id = \?`
	deleteTaskQuery = `DELETE FROM tasks WHERE id = \? AND user_id = \?`
)

var taskColumns = []string{
	"id",
	"user_id",
	"title",
	"description",
	"due_date",
	"priority",
	"status",
	"created_at",
	"updated_at",
}

func TestTaskRepository_ListByUser_OrdersNewestFirst(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(listTasksQuery).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow(2, 1, "Newer", nil, nil, "high", "pending", now, now).
			AddRow(1, 1, "Older", "details", nil, "low", "completed", now.Add(-time.Hour), now.Add(-time.Hour)))

	repo := repository.NewTaskRepository(db)
	tasks, err := repo.ListByUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Title != "Newer" || tasks[1].Title != "Older" {
		t.Fatalf("unexpected order: %q, %q", tasks[0].Title, tasks[1].Title)
	}
	if tasks[0].Description.Valid {
		t.Fatalf("expected NULL description to scan as invalid")
	}
	if !tasks[1].Description.Valid || tasks[1].Description.String != "details" {
		t.Fatalf("unexpected description: %+v", tasks[1].Description)
	}
}

func TestTaskRepository_ListByUser_Empty(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(listTasksQuery).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(taskColumns))

	repo := repository.NewTaskRepository(db)
	tasks, err := repo.ListByUser(context.Background(), 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tasks))
	}
}

func TestTaskRepository_FindByID_MissingIsNil(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(findTaskQuery).
		WithArgs(uint64(42), uint64(1)).
		WillReturnRows(sqlmock.NewRows(taskColumns))

	repo := repository.NewTaskRepository(db)
	task, err := repo.FindByID(context.Background(), 1, 42)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if task != nil {
		t.Fatalf("expected nil task, got %+v", task)
	}
}

func TestTaskRepository_Create_SetsID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now()
	task := &entity.Task{
		UserID:    1,
		Title:     "Buy milk",
		Priority:  entity.PriorityHigh,
		Status:    entity.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec(insertTaskQuery).
		WithArgs(uint64(1), "Buy milk", task.Description, task.DueDate, entity.PriorityHigh, entity.StatusPending, now, now).
		WillReturnResult(sqlmock.NewResult(11, 1))

	repo := repository.NewTaskRepository(db)
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if task.ID != 11 {
		t.Fatalf("expected ID 11, got %d", task.ID)
	}
}

func TestTaskRepository_Update_ScopedToOwner(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	task := &entity.Task{
		ID:          11,
		UserID:      1,
		Title:       "Buy milk",
		Description: sql.NullString{String: "2 liters", Valid: true},
		Priority:    entity.PriorityHigh,
		Status:      entity.StatusInProgress,
	}

	mock.ExpectExec(updateTaskQuery).
		WithArgs("Buy milk", task.Description, task.DueDate, entity.PriorityHigh, entity.StatusInProgress, sqlmock.AnyArg(), uint64(11), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := repository.NewTaskRepository(db)
	if err := repo.Update(context.Background(), task); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTaskRepository_Delete_ReportsRows(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec(deleteTaskQuery).
		WithArgs(uint64(11), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteTaskQuery).
		WithArgs(uint64(11), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := repository.NewTaskRepository(db)

	rows, err := repo.Delete(context.Background(), 1, 11)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row deleted, got %d", rows)
	}

	rows, err = repo.Delete(context.Background(), 1, 11)
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected 0 rows on repeat delete, got %d", rows)
	}
}
