package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskctl/internal/auth"
	"taskctl/internal/commands"
	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/logging"
	"taskctl/internal/service"
)

// ServiceFactory creates a Service from config.
// cfg.Session is set for commands that use the session and nil otherwise.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// A bare invocation lists tasks.
	name := "list"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	// Common flags are only accepted after the command name.
	if strings.HasPrefix(name, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(name)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

// flagError rewrites a flag package error in the CLI's wording.
func flagError(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument:"):
		name := strings.TrimSpace(strings.TrimPrefix(msg, "flag needs an argument:"))
		return "flag needs an argument: " + name
	case strings.HasPrefix(msg, "flag provided but not defined:"):
		return "unknown flag: " + strings.TrimPrefix(msg, "flag provided but not defined: ")
	}
	return msg
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configDir string
		quiet     bool
		debug     bool
	)
	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug
	cfg.Logger = logging.New(logging.Options{
		Writer: errOut,
		Level:  cfg.EffectiveLogLevel(),
	})

	if commands.UsesSession(cmd) {
		store, err := cfg.OpenSession()
		if err != nil {
			cfg.Log().Debug("open session", "err", err)
			fmt.Fprintf(errOut, "error: failed to open session: %s\n", err)
			return exitcode.AuthError
		}
		cfg.Session = store

		// Protected commands never reach the backend without a token.
		if cmd.NeedsAuth() {
			if _, err := auth.NewGate(store).Require(auth.TasksPath); err != nil {
				fmt.Fprintf(errOut, "error: not logged in (run: %s login)\n", config.AppName)
				return exitcode.AuthError
			}
		}
	}

	var svc service.Service
	if d.factory != nil {
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
	}

	cfg.Log().Debug("dispatch", "command", cmd.Name(), "args", len(positionalArgs))
	return cmd.Run(ctx, cfg, svc, positionalArgs, out, errOut)
}
