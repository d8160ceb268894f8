package model

import (
	"strings"
	"time"
)

// TaskStatus is the completion state of a task
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// Valid reports whether s is a known status
func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Task represents a single unit of work on a board
type Task struct {
	ID          string     `json:"id" validate:"required"`
	BoardID     string     `json:"boardId" validate:"required"`
	Title       string     `json:"title" validate:"nonblank"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	DueDate     *time.Time `json:"dueDate"`
	Status      TaskStatus `json:"status" validate:"oneof=pending completed"`
	Priority    bool       `json:"priority"`
}

// NewTask holds the caller-supplied fields of a task being added.
// Identity, board and creation time are assigned by the store.
type NewTask struct {
	Title       string
	Description string
	DueDate     *time.Time
	Status      TaskStatus
	Priority    bool
}

// Normalize trims the title and defaults an empty status to pending
func (n NewTask) Normalize() NewTask {
	n.Title = strings.TrimSpace(n.Title)
	if n.Status == "" {
		n.Status = StatusPending
	}
	return n
}

// Done returns true if the task is completed
func (t *Task) Done() bool {
	return t.Status == StatusCompleted
}

// IsDue returns true if the task is due today or overdue
func (t *Task) IsDue() bool {
	if t.DueDate == nil {
		return false
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return t.DueDate.Before(today.Add(24 * time.Hour))
}

// IsOverdue returns true if the task is past its due date
func (t *Task) IsOverdue() bool {
	if t.DueDate == nil {
		return false
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return t.DueDate.Before(today)
}

func (t Task) clone() Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}
