// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All REST calls go through this interface.
// Commands and views never build HTTP requests directly.
type Service interface {
	// List returns all tasks of the authenticated user in API order.
	List(ctx context.Context) ([]Task, error)

	// ListByDueDate returns all tasks ordered by due date, earliest first.
	ListByDueDate(ctx context.Context) ([]Task, error)

	// Create creates a task. The backend assigns ID and CreatedAt.
	Create(ctx context.Context, fields TaskFields) (Task, error)

	// Update applies a partial update and returns the merged task.
	Update(ctx context.Context, id string, patch TaskPatch) (Task, error)

	// Delete deletes a task by ID.
	Delete(ctx context.Context, id string) error

	// Ping checks that the backend is reachable and returns its message.
	Ping(ctx context.Context) (string, error)
}
