// Package view owns the in-memory task list shown to the user and
// reconciles it with confirmed backend responses.
package view

import (
	"fmt"
	"strings"

	"taskctl/internal/service"
)

// Filter selects which tasks are visible.
type Filter string

// FilterAll shows every task. The other filters match a status exactly.
const (
	FilterAll        Filter = "ALL"
	FilterToDo       Filter = Filter(service.StatusToDo)
	FilterInProgress Filter = Filter(service.StatusInProgress)
	FilterDone       Filter = Filter(service.StatusDone)
)

// Filters lists the selectable filters in display order.
var Filters = []Filter{FilterAll, FilterToDo, FilterInProgress, FilterDone}

// ParseFilter parses "all" or any status spelling accepted by
// service.ParseStatus.
func ParseFilter(s string) (Filter, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") || strings.TrimSpace(s) == "" {
		return FilterAll, nil
	}
	st, err := service.ParseStatus(s)
	if err != nil {
		return "", fmt.Errorf("invalid filter: %s", s)
	}
	return Filter(st), nil
}

// Next returns the filter after f in Filters, wrapping around.
func (f Filter) Next() Filter {
	for i, cur := range Filters {
		if cur == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Apply returns the tasks matching f, in order. FilterAll returns a copy
// of the whole list. The input is never modified.
func Apply(tasks []service.Task, f Filter) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if f == FilterAll || t.Status == service.Status(f) {
			out = append(out, t)
		}
	}
	return out
}
