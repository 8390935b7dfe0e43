package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/taskmaster-solutions/ms-go-tasks/app/entity"
	"github.com/taskmaster-solutions/ms-go-tasks/app/repository"
)

// ErrTaskNotFound covers both a genuinely missing task and a task owned by
// another user. The two cases are deliberately indistinguishable.
var ErrTaskNotFound = errors.New("task not found")

type TaskService struct {
	taskRepo *repository.TaskRepository
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

type TaskCreateParams struct {
	Title       string
	Description *string
	DueDate     *time.Time
	Priority    string
	Status      string
}

// TaskUpdateParams applies only the fields that are set. ClearDueDate
// removes the due date; it wins over DueDate.
type TaskUpdateParams struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *string
	Status       *string
}

func (s *TaskService) List(ctx context.Context, userID uint64) ([]*entity.Task, error) {
	return s.taskRepo.ListByUser(ctx, userID)
}

func (s *TaskService) Get(ctx context.Context, userID, taskID uint64) (*entity.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// Create stores a new task owned by userID. The owner comes from the
// authenticated identity only; nothing a caller supplies can change it.
func (s *TaskService) Create(ctx context.Context, userID uint64, params TaskCreateParams) (*entity.Task, error) {
	fields := ValidationErrors{}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		fields["title"] = "title must not be empty"
	}

	priority := entity.PriorityMedium
	if params.Priority != "" {
		priority = entity.Priority(params.Priority)
		if !priority.Valid() {
			fields["priority"] = "priority must be one of: low, medium, high"
		}
	}

	status := entity.StatusPending
	if params.Status != "" {
		status = entity.Status(params.Status)
		if !status.Valid() {
			fields["status"] = "status must be one of: pending, in_progress, completed"
		}
	}

	if len(fields) > 0 {
		return nil, fields
	}

	now := time.Now()
	task := &entity.Task{
		UserID:    userID,
		Title:     title,
		Priority:  priority,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if params.Description != nil && *params.Description != "" {
		task.Description = sql.NullString{String: *params.Description, Valid: true}
	}
	if params.DueDate != nil {
		task.DueDate = sql.NullTime{Time: *params.DueDate, Valid: true}
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Update merges the supplied fields into the stored task. Absent fields
// keep their values; the owner is never touched.
func (s *TaskService) Update(ctx context.Context, userID, taskID uint64, params TaskUpdateParams) (*entity.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	fields := ValidationErrors{}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			fields["title"] = "title must not be empty"
		} else {
			task.Title = title
		}
	}
	if params.Priority != nil {
		priority := entity.Priority(*params.Priority)
		if !priority.Valid() {
			fields["priority"] = "priority must be one of: low, medium, high"
		} else {
			task.Priority = priority
		}
	}
	if params.Status != nil {
		status := entity.Status(*params.Status)
		if !status.Valid() {
			fields["status"] = "status must be one of: pending, in_progress, completed"
		} else {
			task.Status = status
		}
	}

	if len(fields) > 0 {
		return nil, fields
	}

	if params.Description != nil {
		task.Description = sql.NullString{String: *params.Description, Valid: *params.Description != ""}
	}
	if params.ClearDueDate {
		task.DueDate = sql.NullTime{}
	} else if params.DueDate != nil {
		task.DueDate = sql.NullTime{Time: *params.DueDate, Valid: true}
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID uint64) error {
	deleted, err := s.taskRepo.Delete(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrTaskNotFound
	}
	return nil
}
