package http

import (
	"time"

	"github.com/taskmaster-solutions/ms-go-tasks/app/entity"
)

const dueDateLayout = "2006-01-02"

type UserResponse struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	User    UserResponse `json:"user"`
}

type RefreshTokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

type TaskResponse struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	DueDate     *string   `json:"due_date"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TaskListResponse struct {
	Count   int            `json:"count"`
	Results []TaskResponse `json:"results"`
}

func NewUserResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
	}
}

func NewTaskResponse(task *entity.Task) TaskResponse {
	resp := TaskResponse{
		ID:        task.ID,
		Title:     task.Title,
		Priority:  string(task.Priority),
		Status:    string(task.Status),
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
	if task.Description.Valid {
		resp.Description = &task.Description.String
	}
	if task.DueDate.Valid {
		due := task.DueDate.Time.Format(dueDateLayout)
		resp.DueDate = &due
	}
	return resp
}

func NewTaskListResponse(tasks []*entity.Task) TaskListResponse {
	results := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		results = append(results, NewTaskResponse(task))
	}
	return TaskListResponse{
		Count:   len(results),
		Results: results,
	}
}
