package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskctl/internal/service"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Raw      string // the argument as given
	Num      int    // 1-based list position when IsNumber
	IsNumber bool   // true if Raw is all digits
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// A reference is a single argument. If it is all digits it may also be
// read as a list position; whether it names an id or a position is only
// decided by Resolve against the listing.
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	raw := strings.TrimSpace(args[0])
	if raw == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	ref := TaskRef{Raw: raw}
	if isAllDigits(raw) {
		num, err := strconv.Atoi(raw)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", raw)
		}
		ref.Num = num
		ref.IsNumber = true
	}
	return ref, nil
}

// Resolve finds the referenced task in a listing.
// An exact id match wins over a position.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	for _, t := range tasks {
		if t.ID == r.Raw {
			return t, nil
		}
	}
	if r.IsNumber {
		if r.Num < 1 || r.Num > len(tasks) {
			return service.Task{}, fmt.Errorf("%w: task number out of range: %d", service.ErrNotFound, r.Num)
		}
		return tasks[r.Num-1], nil
	}
	return service.Task{}, fmt.Errorf("%w: no task with id %s", service.ErrNotFound, r.Raw)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
