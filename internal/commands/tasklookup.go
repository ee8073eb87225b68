package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
	"taskctl/internal/session"
	"taskctl/internal/view"
)

// lookupTask loads the listing into a fresh controller and resolves the
// task reference in args against it. On failure the error has already been
// reported and the returned code is non-zero.
func lookupTask(ctx context.Context, cfg *config.Config, svc service.Service, args []string, errOut io.Writer) (*view.Controller, service.Task, int) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, service.Task{}, exitcode.UserError
	}
	if !requireService(svc, errOut) {
		return nil, service.Task{}, exitcode.BackendError
	}

	ctrl := view.NewController(svc, cfg.Log())
	if err := ctrl.Load(ctx); err != nil {
		return nil, service.Task{}, reportError(errOut, err)
	}

	task, err := ref.Resolve(ctrl.Tasks())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, service.Task{}, exitcode.UserError
	}
	cfg.Log().Debug("resolved task", "ref", ref.Raw, "id", task.ID)
	return ctrl, task, exitcode.Success
}

// reportError prints err in the CLI error format and returns its exit code.
func reportError(errOut io.Writer, err error) int {
	code := exitcode.FromError(err)
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: auth error: %v (run: %s login)\n", err, config.AppName)
	case code == exitcode.BackendError:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return code
}

// requireService reports a missing backend.
func requireService(svc service.Service, errOut io.Writer) bool {
	if svc == nil {
		fmt.Fprintln(errOut, "error: backend error: no backend configured")
		return false
	}
	return true
}

// sessionStore returns the dispatcher's session store, opening it from the
// config directory when the command runs standalone.
func sessionStore(cfg *config.Config) (*session.Store, error) {
	if cfg.Session != nil {
		return cfg.Session, nil
	}
	return cfg.OpenSession()
}
