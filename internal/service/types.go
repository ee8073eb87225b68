package service

import (
	"fmt"
	"strings"
)

// Status is the workflow state of a task.
// Values other than the three known ones are preserved as-is.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Known reports whether s is one of the three known statuses.
func (s Status) Known() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus parses user input into a known status.
// Accepts the canonical form case-insensitively plus short spellings
// such as "todo", "in-progress" and "doing".
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	switch key {
	case "todo":
		return StatusToDo, nil
	case "inprogress", "doing", "wip":
		return StatusInProgress, nil
	case "done", "complete", "completed":
		return StatusDone, nil
	}
	return "", fmt.Errorf("%w: unknown status: %s", ErrValidation, s)
}

// Task represents a single task item.
type Task struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Status      Status    `json:"status" yaml:"status"`
	DueDate     Timestamp `json:"due_date" yaml:"due_date"`
	CreatedAt   Timestamp `json:"created_at" yaml:"created_at"`
}

// TaskFields are the inputs for creating a task. All four are required.
type TaskFields struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	DueDate     Timestamp `json:"due_date"`
}

// Validate checks that every field is set.
func (f TaskFields) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(f.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(string(f.Status)) == "" {
		missing = append(missing, "status")
	}
	if f.DueDate.IsZero() {
		missing = append(missing, "due_date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// TaskPatch is a partial update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	DueDate     *Timestamp `json:"due_date,omitempty"`
}

// Empty reports whether the patch sets no field.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.DueDate == nil
}

// StatusPatch returns a patch that only sets the status.
func StatusPatch(s Status) TaskPatch {
	return TaskPatch{Status: &s}
}

// Apply returns t with the patch fields merged in.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	return t
}
