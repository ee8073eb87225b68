// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"taskctl/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task, invalid input).
	UserError = 1

	// AuthError indicates a missing or rejected session.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// FromError maps an error from the service taxonomy to an exit code.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrUnauthorized):
		return AuthError
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrValidation):
		return UserError
	}
	return BackendError
}
