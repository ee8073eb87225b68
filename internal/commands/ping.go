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
	Register(&PingCmd{})
}

// PingCmd checks that the backend is reachable. It needs no session.
type PingCmd struct{}

func (c *PingCmd) Name() string      { return "ping" }
func (c *PingCmd) Aliases() []string { return nil }
func (c *PingCmd) Synopsis() string  { return "Check the backend is up" }
func (c *PingCmd) Usage() string     { return "taskctl ping" }
func (c *PingCmd) NeedsAuth() bool   { return false }

func (c *PingCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *PingCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if !requireService(svc, errOut) {
		return exitcode.BackendError
	}

	msg, err := svc.Ping(ctx)
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "%s: %s\n", cfg.BaseURL, msg)
	}
	return exitcode.Success
}
