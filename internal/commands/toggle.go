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
	Register(&ToggleCmd{})
}

// ToggleCmd switches a task between To Do and In Progress.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return nil }
func (c *ToggleCmd) Synopsis() string  { return "Switch a task between To Do and In Progress" }
func (c *ToggleCmd) Usage() string     { return "taskctl toggle <ref>" }
func (c *ToggleCmd) NeedsAuth() bool   { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	ctrl, task, code := lookupTask(ctx, cfg, svc, args, errOut)
	if code != exitcode.Success {
		return code
	}

	updated, changed, err := ctrl.Toggle(ctx, task.ID)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		if changed {
			fmt.Fprintln(out, updated.Status)
		} else {
			fmt.Fprintln(out, "already done")
		}
	}
	return exitcode.Success
}
