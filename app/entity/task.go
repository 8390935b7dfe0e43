package entity

import (
	"database/sql"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var priorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

var statuses = map[Status]struct{}{
	StatusPending:    {},
	StatusInProgress: {},
	StatusCompleted:  {},
}

func (p Priority) Valid() bool {
	_, ok := priorities[p]
	return ok
}

func (s Status) Valid() bool {
	_, ok := statuses[s]
	return ok
}

// Task is owned by exactly one user. UserID is fixed at creation and never
// changes afterwards.
type Task struct {
	ID          uint64
	UserID      uint64
	Title       string
	Description sql.NullString
	DueDate     sql.NullTime
	Priority    Priority
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
