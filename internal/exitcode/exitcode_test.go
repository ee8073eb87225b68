package exitcode_test

import (
	"errors"
	"fmt"
	"testing"

	"taskctl/internal/exitcode"
	"taskctl/internal/service"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitcode.Success},
		{fmt.Errorf("%w: bad token", service.ErrUnauthorized), exitcode.AuthError},
		{fmt.Errorf("%w: task 5", service.ErrNotFound), exitcode.UserError},
		{fmt.Errorf("%w: missing title", service.ErrValidation), exitcode.UserError},
		{fmt.Errorf("%w: connection refused", service.ErrNetwork), exitcode.BackendError},
		{errors.New("server returned 500: boom"), exitcode.BackendError},
	}
	for _, tt := range tests {
		if got := exitcode.FromError(tt.err); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}
