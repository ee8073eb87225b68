package view

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"taskctl/internal/logging"
	"taskctl/internal/service"
)

// State is the lifecycle state of the task list.
type State int

const (
	Loading State = iota
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrBusy is returned when a request is already outstanding.
var ErrBusy = errors.New("another request is in progress")

// Controller owns the task list of one view activation.
//
// The list changes only through the Apply methods, which take the outcome
// of a backend call. On failure the list is left untouched and a notice
// is recorded. Nothing is retried.
//
// A Controller is not safe for concurrent use. Asynchronous callers issue
// requests elsewhere and call Apply on their own event loop.
type Controller struct {
	svc service.Service
	log logging.Logger

	state  State
	tasks  []service.Task
	filter Filter
	busy   bool
	notice string
}

// NewController creates a controller in the Loading state with FilterAll.
func NewController(svc service.Service, log logging.Logger) *Controller {
	if log == nil {
		log = logging.Discard()
	}
	return &Controller{svc: svc, log: log, state: Loading, filter: FilterAll}
}

// State returns the lifecycle state.
func (c *Controller) State() State { return c.state }

// Filter returns the current filter.
func (c *Controller) Filter() Filter { return c.filter }

// Busy reports whether a request is outstanding.
func (c *Controller) Busy() bool { return c.busy }

// Notice returns the last user-visible failure message.
func (c *Controller) Notice() string { return c.notice }

// ClearNotice dismisses the notice.
func (c *Controller) ClearNotice() { c.notice = "" }

// Tasks returns a copy of the owned list.
func (c *Controller) Tasks() []service.Task {
	return append([]service.Task(nil), c.tasks...)
}

// Visible returns the owned list narrowed by the current filter.
// It is derived on every call and never contacts the backend.
func (c *Controller) Visible() []service.Task {
	return Apply(c.tasks, c.filter)
}

// SetFilter changes the filter.
func (c *Controller) SetFilter(f Filter) {
	c.filter = f
}

// Find returns the owned task with id.
func (c *Controller) Find(id string) (service.Task, bool) {
	if i := c.index(id); i >= 0 {
		return c.tasks[i], true
	}
	return service.Task{}, false
}

// Begin marks a request as outstanding. It returns ErrBusy if one already is.
// Every successful Begin must be followed by exactly one Apply call.
func (c *Controller) Begin() error {
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	c.notice = ""
	return nil
}

// ApplyLoad reconciles the result of a list call.
func (c *Controller) ApplyLoad(tasks []service.Task, err error) error {
	c.busy = false
	if err != nil {
		c.state = Failed
		c.notice = "Failed to fetch tasks: " + err.Error()
		c.log.Warn("list failed", "err", err)
		return err
	}
	c.tasks = append([]service.Task(nil), tasks...)
	c.state = Loaded
	c.log.Debug("list loaded", "count", len(tasks))
	return nil
}

// ApplyCreate appends the created task.
func (c *Controller) ApplyCreate(task service.Task, err error) error {
	c.busy = false
	if err != nil {
		return c.fail("Failed to create task", err)
	}
	c.tasks = append(c.tasks, task)
	return nil
}

// ApplyUpdate replaces the entry with the same ID as the returned task.
// A task missing from the list is not added.
func (c *Controller) ApplyUpdate(task service.Task, err error) error {
	c.busy = false
	if err != nil {
		return c.fail("Failed to update task", err)
	}
	if i := c.index(task.ID); i >= 0 {
		c.tasks[i] = task
	}
	return nil
}

// ApplyDelete removes the entry with id. A not-found response means the
// task is already gone and counts as success.
func (c *Controller) ApplyDelete(id string, err error) error {
	c.busy = false
	if err != nil && !errors.Is(err, service.ErrNotFound) {
		return c.fail("Failed to delete task", err)
	}
	if err != nil {
		c.log.Debug("delete of missing task treated as done", "id", id)
	}
	if i := c.index(id); i >= 0 {
		c.tasks = slices.Delete(c.tasks, i, i+1)
	}
	return nil
}

func (c *Controller) fail(action string, err error) error {
	c.notice = action + ": " + err.Error()
	c.log.Warn(action, "err", err)
	return err
}

func (c *Controller) index(id string) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ToggledStatus returns the status a toggle moves to.
// To Do and In Progress swap; Done does not participate and reports
// false. Any other status moves to To Do.
func ToggledStatus(s service.Status) (service.Status, bool) {
	switch s {
	case service.StatusDone:
		return s, false
	case service.StatusToDo:
		return service.StatusInProgress, true
	default:
		return service.StatusToDo, true
	}
}

// Load fetches the list and reconciles it.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.Begin(); err != nil {
		return err
	}
	tasks, err := c.svc.List(ctx)
	return c.ApplyLoad(tasks, err)
}

// LoadByDueDate is Load using the backend's due-date ordering.
func (c *Controller) LoadByDueDate(ctx context.Context) error {
	if err := c.Begin(); err != nil {
		return err
	}
	tasks, err := c.svc.ListByDueDate(ctx)
	return c.ApplyLoad(tasks, err)
}

// Create validates the fields, creates the task and appends it.
func (c *Controller) Create(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	if err := fields.Validate(); err != nil {
		c.notice = "Failed to create task: " + err.Error()
		return service.Task{}, err
	}
	if err := c.Begin(); err != nil {
		return service.Task{}, err
	}
	task, err := c.svc.Create(ctx, fields)
	return task, c.ApplyCreate(task, err)
}

// Update applies a partial update and replaces the entry.
func (c *Controller) Update(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	if err := c.Begin(); err != nil {
		return service.Task{}, err
	}
	task, err := c.svc.Update(ctx, id, patch)
	return task, c.ApplyUpdate(task, err)
}

// Delete deletes the task and removes the entry.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.Begin(); err != nil {
		return err
	}
	return c.ApplyDelete(id, c.svc.Delete(ctx, id))
}

// ToggleTarget returns the patch a toggle of id would send. It reports
// false when nothing should be sent: the task is Done or not in the list.
func (c *Controller) ToggleTarget(id string) (service.TaskPatch, bool) {
	cur, ok := c.Find(id)
	if !ok {
		return service.TaskPatch{}, false
	}
	next, ok := ToggledStatus(cur.Status)
	if !ok {
		return service.TaskPatch{}, false
	}
	return service.StatusPatch(next), true
}

// Toggle swaps a task between To Do and In Progress. Done tasks are left
// alone without contacting the backend; changed reports whether an
// update was sent.
func (c *Controller) Toggle(ctx context.Context, id string) (task service.Task, changed bool, err error) {
	cur, ok := c.Find(id)
	if !ok {
		err = fmt.Errorf("%w: task %s", service.ErrNotFound, id)
		c.notice = "Failed to update status: " + err.Error()
		return service.Task{}, false, err
	}
	patch, ok := c.ToggleTarget(id)
	if !ok {
		return cur, false, nil
	}
	task, err = c.Update(ctx, id, patch)
	return task, err == nil, err
}

// Complete sets the task to Done regardless of its current status.
func (c *Controller) Complete(ctx context.Context, id string) (service.Task, error) {
	return c.Update(ctx, id, service.StatusPatch(service.StatusDone))
}
