package tui

import "taskctl/internal/service"

// Every result message carries the activation it was issued for, so results
// arriving after a logout are dropped.

type loginDoneMsg struct {
	gen int
	err error
}

type tasksLoadedMsg struct {
	gen   int
	tasks []service.Task
	err   error
}

type taskUpdatedMsg struct {
	gen  int
	task service.Task
	err  error
}

type taskDeletedMsg struct {
	gen int
	id  string
	err error
}
