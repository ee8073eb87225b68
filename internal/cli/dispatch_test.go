package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskctl/internal/cli"
	"taskctl/internal/commands"
	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
	"taskctl/internal/session"
	"taskctl/internal/testutil"
)

// testFactory creates a service factory that returns the given FakeService.
func testFactory(svc *testutil.FakeService) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return svc, nil
	}
}

// loggedInDir returns a config directory holding a session token.
func loggedInDir(t *testing.T) string {
	t.Helper()
	return loggedIn(t, t.TempDir())
}

func loggedIn(t *testing.T, dir string) string {
	t.Helper()
	store, err := session.Open(session.NewFileStorage(dir))
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	if err := store.SetAccessToken("token"); err != nil {
		t.Fatalf("failed to store token: %v", err)
	}
	return dir
}

func run(t *testing.T, factory cli.ServiceFactory, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	var outBuf, errBuf bytes.Buffer
	code = dispatcher.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeService()), "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeService()), "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	stdout, stderr, code := run(t, testFactory(testutil.NewFakeService()), "help", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	stdout, stderr, code := run(t, nil, "version", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskctl 0.1.0\n" {
		t.Errorf("expected 'taskctl 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	_, stderr, code := run(t, nil, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagNeedsArgument(t *testing.T) {
	_, stderr, code := run(t, nil, "list", "--status")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -status\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NotLoggedIn(t *testing.T) {
	svc := testutil.NewFakeService()
	_, stderr, code := run(t, testFactory(svc), "list", "--config", t.TempDir())

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	expected := "error: not logged in (run: taskctl login)\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
	if len(svc.Calls()) != 0 {
		t.Error("protected command must not reach the backend without a session")
	}
}

func TestDispatcher_NoArgsLists(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	loggedIn(t, filepath.Join(xdg, config.AppName))
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", service.StatusToDo)

	stdout, stderr, code := run(t, testFactory(svc))

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	expected := "   1  To Do        2026-02-01  Buy milk\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestDispatcher_CommandFlagsAndAlias(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", service.StatusToDo)
	svc.AddTask("2", "Pay rent", service.StatusDone)

	stdout, _, code := run(t, testFactory(svc), "ls", "--config", loggedInDir(t), "-s", "done")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "   2  Done         2026-02-01  Pay rent\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestDispatcher_AddPassesFlags(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := run(t, testFactory(svc), "add", "--config", loggedInDir(t),
		"-d", "semi-skimmed", "--due", "2026-03-01", "Buy", "milk")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "new-1\n" {
		t.Errorf("expected created id, got %q", stdout)
	}
	if got := svc.Tasks()[0].Status; got != service.StatusToDo {
		t.Errorf("expected default status To Do, got %q", got)
	}
}

func TestDispatcher_QuietFlag(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", service.StatusToDo)

	stdout, _, code := run(t, testFactory(svc), "done", "--config", loggedInDir(t), "--quiet", "1")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output with --quiet, got %q", stdout)
	}
}

func TestDispatcher_FactoryError(t *testing.T) {
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return nil, errors.New("bad base url")
	}

	_, stderr, code := run(t, factory, "ping", "--config", t.TempDir())

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: bad base url\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_FactorySeesSession(t *testing.T) {
	var got *session.Store
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		got = cfg.Session
		return testutil.NewFakeService(), nil
	}

	_, _, code := run(t, factory, "list", "--config", loggedInDir(t))

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if got == nil {
		t.Error("expected the session to be open before the factory runs")
	}
}

// unreadableSessionDir returns a config directory whose token file cannot
// be read as a file.
func unreadableSessionDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, session.TokenKey), 0700); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	return dir
}

func TestDispatcher_SessionOnlyOpenedWhenUsed(t *testing.T) {
	dir := unreadableSessionDir(t)

	for _, args := range [][]string{
		{"help", "--config", dir},
		{"version", "--config", dir},
		{"ping", "--config", dir},
	} {
		_, stderr, code := run(t, testFactory(testutil.NewFakeService()), args...)
		if code != exitcode.Success {
			t.Errorf("%s: expected exit code %d, got %d (stderr %q)", args[0], exitcode.Success, code, stderr)
		}
	}
}

func TestDispatcher_SessionErrorReportedForProtected(t *testing.T) {
	dir := unreadableSessionDir(t)
	svc := testutil.NewFakeService()

	for _, name := range []string{"list", "logout"} {
		_, stderr, code := run(t, testFactory(svc), name, "--config", dir)
		if code != exitcode.AuthError {
			t.Errorf("%s: expected exit code %d, got %d", name, exitcode.AuthError, code)
		}
		if !strings.HasPrefix(stderr, "error: failed to open session:") {
			t.Errorf("%s: unexpected stderr %q", name, stderr)
		}
	}
	if len(svc.Calls()) != 0 {
		t.Error("expected no backend calls")
	}
}

func TestDispatcher_FactoryWithoutSession(t *testing.T) {
	opened := true
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		opened = cfg.Session != nil
		return testutil.NewFakeService(), nil
	}

	if _, _, code := run(t, factory, "ping", "--config", t.TempDir()); code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if opened {
		t.Error("ping must not open the session")
	}
}
