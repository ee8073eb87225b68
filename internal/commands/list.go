package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/output"
	"taskctl/internal/service"
	"taskctl/internal/view"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command. It is also the default command.
type ListCmd struct {
	status string
	byDue  bool
}

// SetStatus sets the status filter (for testing).
func (c *ListCmd) SetStatus(status string) {
	c.status = status
}

// SetByDue sets due-date ordering (for testing).
func (c *ListCmd) SetByDue(byDue bool) {
	c.byDue = byDue
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "taskctl list [--status <s>] [--by-due]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.status, "s", "", "")
	fs.BoolVar(&c.byDue, "by-due", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	filter, err := view.ParseFilter(c.status)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !requireService(svc, errOut) {
		return exitcode.BackendError
	}

	ctrl := view.NewController(svc, cfg.Log())
	if err := ctrl.Load(ctx); err != nil {
		return reportError(errOut, err)
	}

	// Numbers are positions in the listing that refs resolve against, so
	// they stay valid whatever the filter or ordering.
	positions := make(map[string]int)
	for i, t := range ctrl.Tasks() {
		positions[t.ID] = i + 1
	}

	if c.byDue {
		if err := ctrl.LoadByDueDate(ctx); err != nil {
			return reportError(errOut, err)
		}
	}

	ctrl.SetFilter(filter)
	visible := ctrl.Visible()
	if len(visible) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	f := output.NewFormatter(out)
	for _, t := range visible {
		f.Task(positions[t.ID], t)
	}
	return exitcode.Success
}
