package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"taskctl/internal/auth"
	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
	"taskctl/internal/tui"
)

func init() {
	Register(&UICmd{})
}

// UICmd starts the interactive terminal view.
// It shows the login screen itself when there is no session.
type UICmd struct {
	// ProgramOptions are appended to the defaults (for testing).
	ProgramOptions []tea.ProgramOption
}

func (c *UICmd) Name() string      { return "ui" }
func (c *UICmd) Aliases() []string { return nil }
func (c *UICmd) Synopsis() string  { return "Open the interactive view" }
func (c *UICmd) Usage() string     { return "taskctl ui" }
func (c *UICmd) NeedsAuth() bool   { return false }
func (c *UICmd) UsesSession() bool { return true }

func (c *UICmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if !requireService(svc, errOut) {
		return exitcode.BackendError
	}

	store, err := sessionStore(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.UserError
	}
	logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(errOut, "error: failed to open log file: %v\n", err)
		return exitcode.UserError
	}
	defer logFile.Close()

	// The screen belongs to the view while it runs.
	log := cfg.Log()
	log.SetOutput(logFile)
	defer log.SetOutput(errOut)
	log.Info("ui started", "api", cfg.BaseURL)

	model := tui.New(tui.Options{
		Service: svc,
		Gate:    auth.NewGate(store),
		Auth:    auth.NewAuthenticator(cfg.BaseURL, store, log),
		Log:     log,
		Context: ctx,
		Timeout: cfg.Timeout,
	})

	opts := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	}, c.ProgramOptions...)

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		log.Error("ui stopped", "err", err)
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
