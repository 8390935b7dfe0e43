package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	dto "github.com/taskmaster-solutions/ms-go-tasks/app/dto/http"
	"github.com/taskmaster-solutions/ms-go-tasks/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const dueDateLayout = "2006-01-02"

type TaskController struct {
	taskService *service.TaskService
}

func NewTaskController(taskService *service.TaskService) *TaskController {
	return &TaskController{taskService: taskService}
}

func (c *TaskController) List(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	tasks, err := c.taskService.List(ctx.Request().Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("List tasks failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.NewTaskListResponse(tasks))
}

func (c *TaskController) Create(ctx echo.Context) error {
	var req dto.CreateTaskRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind create task request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.Debug("Create task validation failed")
		return validationJSON(ctx, err)
	}

	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	dueDate, fieldErr := parseDueDate(req.DueDate)
	if fieldErr != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fieldErr})
	}

	task, err := c.taskService.Create(ctx.Request().Context(), userID, service.TaskCreateParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		var fields service.ValidationErrors
		if errors.As(err, &fields) {
			logrus.WithField("user_id", userID).Warn("Create task failed: validation")
			return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fields})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Create task failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "task_id": task.ID}).Info("Task created")
	return ctx.JSON(http.StatusCreated, dto.NewTaskResponse(task))
}

func (c *TaskController) Get(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	taskID, err := parseTaskID(ctx)
	if err != nil {
		return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "task not found"})
	}

	task, err := c.taskService.Get(ctx.Request().Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "task not found"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Get task failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

// Update handles PATCH: only the fields present in the body change.
func (c *TaskController) Update(ctx echo.Context) error {
	var req dto.UpdateTaskRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind update task request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.Debug("Update task validation failed")
		return validationJSON(ctx, err)
	}

	dueDate, fieldErr := parseDueDate(req.DueDate)
	if fieldErr != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fieldErr})
	}

	return c.applyUpdate(ctx, service.TaskUpdateParams{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	})
}

// Replace handles PUT: the body is the complete new state, and optional
// fields left out of it are cleared.
func (c *TaskController) Replace(ctx echo.Context) error {
	var req dto.CreateTaskRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind replace task request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := ctx.Validate(&req); err != nil {
		logrus.Debug("Replace task validation failed")
		return validationJSON(ctx, err)
	}

	dueDate, fieldErr := parseDueDate(req.DueDate)
	if fieldErr != nil {
		return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fieldErr})
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}
	status := req.Status
	if status == "" {
		status = "pending"
	}

	return c.applyUpdate(ctx, service.TaskUpdateParams{
		Title:        &req.Title,
		Description:  &description,
		DueDate:      dueDate,
		ClearDueDate: dueDate == nil,
		Priority:     &priority,
		Status:       &status,
	})
}

func (c *TaskController) applyUpdate(ctx echo.Context, params service.TaskUpdateParams) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	taskID, err := parseTaskID(ctx)
	if err != nil {
		return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "task not found"})
	}

	task, err := c.taskService.Update(ctx.Request().Context(), userID, taskID, params)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "task not found"})
		}
		var fields service.ValidationErrors
		if errors.As(err, &fields) {
			logrus.WithField("user_id", userID).Warn("Update task failed: validation")
			return ctx.JSON(http.StatusBadRequest, dto.ValidationErrorResponse{Errors: fields})
		}
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": userID, "task_id": taskID}).Error("Update task failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.NewTaskResponse(task))
}

func (c *TaskController) Delete(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized"})
	}

	taskID, err := parseTaskID(ctx)
	if err != nil {
		return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "task not found"})
	}

	if err := c.taskService.Delete(ctx.Request().Context(), userID, taskID); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "task not found"})
		}
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": userID, "task_id": taskID}).Error("Delete task failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "task_id": taskID}).Info("Task deleted")
	return ctx.NoContent(http.StatusNoContent)
}

// parseTaskID treats a malformed id the same as an unknown one.
func parseTaskID(ctx echo.Context) (uint64, error) {
	return strconv.ParseUint(ctx.Param("id"), 10, 64)
}

func parseDueDate(raw *string) (*time.Time, service.ValidationErrors) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	due, err := time.Parse(dueDateLayout, *raw)
	if err != nil {
		return nil, service.ValidationErrors{"due_date": "due_date must be a valid date in YYYY-MM-DD format"}
	}
	return &due, nil
}
