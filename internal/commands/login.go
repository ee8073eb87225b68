package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"taskctl/internal/auth"
	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	password string

	// Stdin supplies the password when --password is not given.
	// Nil uses os.Stdin.
	Stdin io.Reader

	// HTTPClient is used for the token request. Nil uses the default client.
	HTTPClient *http.Client
}

// SetPassword sets the password flag (for testing).
func (c *LoginCmd) SetPassword(password string) {
	c.password = password
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in and store a session token" }
func (c *LoginCmd) Usage() string     { return "taskctl login [--password <pw>] <username>" }
func (c *LoginCmd) NeedsAuth() bool   { return false }
func (c *LoginCmd) UsesSession() bool { return true }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: username required")
		return exitcode.UserError
	}
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}
	username := args[0]

	password := c.password
	if password == "" {
		if !cfg.Quiet {
			fmt.Fprint(errOut, "Password: ")
		}
		var err error
		password, err = c.readPassword()
		if err != nil {
			fmt.Fprintf(errOut, "error: failed to read password: %v\n", err)
			return exitcode.UserError
		}
	}

	store, err := sessionStore(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	a := auth.NewAuthenticator(cfg.BaseURL, store, cfg.Log())
	a.HTTPClient = c.HTTPClient
	if err := a.Login(ctx, username, password); err != nil {
		code := exitcode.FromError(err)
		if code == exitcode.BackendError {
			fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		} else {
			fmt.Fprintf(errOut, "error: login failed: %v\n", err)
		}
		return code
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// readPassword reads one line from Stdin.
func (c *LoginCmd) readPassword() (string, error) {
	in := c.Stdin
	if in == nil {
		in = os.Stdin
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
