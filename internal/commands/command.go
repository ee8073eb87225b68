// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"taskctl/internal/config"
	"taskctl/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a session.
	// The dispatcher refuses to run such commands when no token is stored.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided, with Session and Logger set by the dispatcher.
	// svc is the task backend; it may be nil when no factory is configured.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int
}

// SessionUser is implemented by commands that manage the session
// themselves without requiring one, such as login.
type SessionUser interface {
	UsesSession() bool
}

// UsesSession reports whether the dispatcher should open the session
// store before running c.
func UsesSession(c Command) bool {
	if c.NeedsAuth() {
		return true
	}
	u, ok := c.(SessionUser)
	return ok && u.UsesSession()
}
