// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"taskctl/internal/service"
)

const (
	// statusWidth fits the longest known status.
	statusWidth = len(service.StatusInProgress)
)

// Status colours. Unknown statuses are rendered without a style.
var (
	ToDoColor       = lipgloss.Color("1")
	InProgressColor = lipgloss.Color("3")
	DoneColor       = lipgloss.Color("2")
)

// StatusStyle returns the style for a status on the given renderer.
func StatusStyle(r *lipgloss.Renderer, s service.Status) lipgloss.Style {
	st := r.NewStyle()
	switch s {
	case service.StatusToDo:
		return st.Foreground(ToDoColor)
	case service.StatusInProgress:
		return st.Foreground(InProgressColor)
	case service.StatusDone:
		return st.Foreground(DoneColor)
	}
	return st
}

// Formatter writes tasks to w. Colours are used only when w is a terminal.
type Formatter struct {
	w io.Writer
	r *lipgloss.Renderer
}

// NewFormatter creates a formatter for w.
func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w, r: lipgloss.NewRenderer(w)}
}

// Task formats a task line.
// Format: "{N:>4}  {STATUS:<11}  {DUE}  {TITLE}\n"
func (f *Formatter) Task(num int, task service.Task) {
	fmt.Fprintf(f.w, "%4d  %s  %-10s  %s\n", num, f.Status(task.Status), task.DueDate.Date(), NormalizeTitle(task.Title))
}

// Status renders a status padded to a fixed width.
func (f *Formatter) Status(s service.Status) string {
	return StatusCell(f.r, s)
}

// StatusCell renders a status padded to the width of the longest known one.
func StatusCell(r *lipgloss.Renderer, s service.Status) string {
	return StatusStyle(r, s).Render(fmt.Sprintf("%-*s", statusWidth, NormalizeStatus(s)))
}

// Detail writes the full task as YAML.
func (f *Formatter) Detail(task service.Task) error {
	enc := yaml.NewEncoder(f.w)
	enc.SetIndent(2)
	if err := enc.Encode(task); err != nil {
		return err
	}
	return enc.Close()
}

// NormalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func NormalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// NormalizeStatus returns the status text, or "-" when empty.
func NormalizeStatus(s service.Status) string {
	if strings.TrimSpace(string(s)) == "" {
		return "-"
	}
	return string(s)
}
