package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the given flags are sent.
type EditCmd struct {
	patch service.TaskPatch
}

// SetPatch sets the fields to change (for testing).
func (c *EditCmd) SetPatch(p service.TaskPatch) {
	c.patch = p
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change fields of a task" }
func (c *EditCmd) Usage() string {
	return "taskctl edit [--title <t>] [-d <d>] [-s <status>] [--due <date>] <ref>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.patch = service.TaskPatch{}

	fs.Func("title", "", func(s string) error {
		c.patch.Title = &s
		return nil
	})
	description := func(s string) error {
		c.patch.Description = &s
		return nil
	}
	fs.Func("description", "", description)
	fs.Func("d", "", description)
	status := func(s string) error {
		st, err := service.ParseStatus(s)
		if err != nil {
			return err
		}
		c.patch.Status = &st
		return nil
	}
	fs.Func("status", "", status)
	fs.Func("s", "", status)
	fs.Func("due", "", func(s string) error {
		due, err := service.ParseTimestamp(s)
		if err != nil {
			return err
		}
		c.patch.DueDate = &due
		return nil
	})
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.patch.Empty() {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	ctrl, task, code := lookupTask(ctx, cfg, svc, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if _, err := ctrl.Update(ctx, task.ID, c.patch); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
