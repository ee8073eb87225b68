// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"taskctl/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int
	calls  []string

	// Now stamps created_at. Defaults to a fixed time.
	Now func() time.Time

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
	PingErr   error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 1,
		Now: func() time.Time {
			return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
		},
	}
}

// AddTask adds a task with the given ID, title and status.
func (f *FakeService) AddTask(id, title string, status service.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, service.Task{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Status:      status,
		DueDate:     service.NewTimestamp(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
		CreatedAt:   service.NewTimestamp(f.Now()),
	})
}

// Seed adds a fully specified task.
func (f *FakeService) Seed(task service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
}

// Tasks returns a snapshot of the backend state.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns the names of the operations invoked, in order.
func (f *FakeService) Calls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeService) track(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

// List implements service.Service.
func (f *FakeService) List(ctx context.Context) ([]service.Task, error) {
	f.track("list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Tasks(), nil
}

// ListByDueDate implements service.Service.
func (f *FakeService) ListByDueDate(ctx context.Context) ([]service.Task, error) {
	f.track("listByDueDate")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	tasks := f.Tasks()
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && tasks[j].DueDate.Before(tasks[j-1].DueDate.Time); j-- {
			tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
		}
	}
	return tasks, nil
}

// Create implements service.Service.
func (f *FakeService) Create(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	f.track("create")
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	// Generate a simple ID
	id := strconv.Itoa(f.nextID)
	f.nextID++
	task := service.Task{
		ID:          "new-" + id,
		Title:       fields.Title,
		Description: fields.Description,
		Status:      fields.Status,
		DueDate:     fields.DueDate,
		CreatedAt:   service.NewTimestamp(f.Now()),
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

// Update implements service.Service.
func (f *FakeService) Update(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	f.track("update")
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = patch.Apply(t)
			return f.tasks[i], nil
		}
	}
	return service.Task{}, fmt.Errorf("%w: task %s", service.ErrNotFound, id)
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, id string) error {
	f.track("delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: task %s", service.ErrNotFound, id)
}

// Ping implements service.Service.
func (f *FakeService) Ping(ctx context.Context) (string, error) {
	f.track("ping")
	if f.PingErr != nil {
		return "", f.PingErr
	}
	return "server is UP!!", nil
}
