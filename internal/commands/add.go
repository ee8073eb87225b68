package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
	"taskctl/internal/view"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	status      string
	due         string
}

// SetFields sets the flag values (for testing).
func (c *AddCmd) SetFields(description, status, due string) {
	c.description = description
	c.status = status
	c.due = due
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskctl add -d <description> [-s <status>] --due <date> <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.status, "status", string(service.StatusToDo), "")
	fs.StringVar(&c.status, "s", string(service.StatusToDo), "")
	fs.StringVar(&c.due, "due", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	fields := service.TaskFields{
		Title:       title,
		Description: strings.TrimSpace(c.description),
	}

	if c.status != "" {
		status, err := service.ParseStatus(c.status)
		if err != nil {
			return reportError(errOut, err)
		}
		fields.Status = status
	}

	if c.due != "" {
		due, err := service.ParseTimestamp(c.due)
		if err != nil {
			fmt.Fprintf(errOut, "error: invalid due date: %s\n", c.due)
			return exitcode.UserError
		}
		fields.DueDate = due
	}

	// Missing fields are reported before any request is made.
	if err := fields.Validate(); err != nil {
		return reportError(errOut, err)
	}
	if !requireService(svc, errOut) {
		return exitcode.BackendError
	}

	ctrl := view.NewController(svc, cfg.Log())
	task, err := ctrl.Create(ctx, fields)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, task.ID)
	}
	return exitcode.Success
}
