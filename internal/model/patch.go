package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPatch is returned when a patch fails validation before merge
var ErrInvalidPatch = errors.New("invalid task patch")

// TaskPatch is a partial update of a task. Nil fields are left untouched.
// Identity fields (id, boardId, createdAt) cannot be patched.
type TaskPatch struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Status       *TaskStatus
	Priority     *bool
}

// IsZero reports whether the patch changes nothing
func (p TaskPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		!p.ClearDueDate && p.Status == nil && p.Priority == nil
}

// Validate checks the patch fields before they are merged into a task
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title must not be blank", ErrInvalidPatch)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPatch, *p.Status)
	}
	if p.DueDate != nil && p.ClearDueDate {
		return fmt.Errorf("%w: dueDate both set and cleared", ErrInvalidPatch)
	}
	return nil
}

// Apply returns a copy of t with the patch merged in. Call Validate first.
func (p TaskPatch) Apply(t Task) Task {
	t = t.clone()
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
	if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	return t
}

// Patch helpers

// SetTitle returns a patch changing only the title
func SetTitle(title string) TaskPatch { return TaskPatch{Title: &title} }

// SetStatus returns a patch changing only the status
func SetStatus(s TaskStatus) TaskPatch { return TaskPatch{Status: &s} }

// SetPriority returns a patch changing only the priority flag
func SetPriority(p bool) TaskPatch { return TaskPatch{Priority: &p} }

type wirePatch struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	DueDate     json.RawMessage `json:"dueDate"`
	Status      *TaskStatus     `json:"status"`
	Priority    *bool           `json:"priority"`
}

// DecodeTaskPatch parses a JSON patch. Unknown fields are rejected and a
// null dueDate clears the due date.
func DecodeTaskPatch(data []byte) (TaskPatch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var w wirePatch
	if err := dec.Decode(&w); err != nil {
		return TaskPatch{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	p := TaskPatch{
		Title:       w.Title,
		Description: w.Description,
		Status:      w.Status,
		Priority:    w.Priority,
	}
	switch {
	case w.DueDate == nil:
	case string(w.DueDate) == "null":
		p.ClearDueDate = true
	default:
		var due time.Time
		if err := json.Unmarshal(w.DueDate, &due); err != nil {
			return TaskPatch{}, fmt.Errorf("%w: dueDate: %v", ErrInvalidPatch, err)
		}
		p.DueDate = &due
	}

	if err := p.Validate(); err != nil {
		return TaskPatch{}, err
	}
	return p, nil
}
