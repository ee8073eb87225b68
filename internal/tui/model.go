// Package tui is the interactive terminal view: a login screen and a task
// list driven by view.Controller.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskctl/internal/auth"
	"taskctl/internal/logging"
	"taskctl/internal/output"
	"taskctl/internal/service"
	"taskctl/internal/view"
)

// Authenticator signs the user in and out.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
	Logout() error
}

// Options configures New.
type Options struct {
	Service service.Service
	Gate    *auth.Gate
	Auth    Authenticator
	Log     logging.Logger

	// Context bounds every request. Nil uses context.Background.
	Context context.Context

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
}

type screen int

const (
	loginScreen screen = iota
	tasksScreen
)

// Model is the bubbletea model of the terminal view.
type Model struct {
	// children
	username textinput.Model
	password textinput.Model

	// supplied
	svc     service.Service
	gate    *auth.Gate
	auth    Authenticator
	l       logging.Logger
	ctx     context.Context
	timeout time.Duration

	// state
	screen    screen
	gen       int
	ctrl      *view.Controller
	cursor    int
	loginErr  string
	alert     string
	loggingIn bool
	quitting  bool
}

// New creates the model. The gate decides whether it opens on the task
// list or on the login screen.
func New(opts Options) Model {
	l := opts.Log
	if l == nil {
		l = logging.Discard()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	username := textinput.New()
	username.Placeholder = "username"
	username.Prompt = "> "
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "> "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	m := Model{
		username: username,
		password: password,
		svc:      opts.Service,
		gate:     opts.Gate,
		auth:     opts.Auth,
		l:        l,
		ctx:      ctx,
		timeout:  opts.Timeout,
		screen:   loginScreen,
		ctrl:     view.NewController(opts.Service, l),
	}
	if m.gate.Check(auth.TasksPath).Allowed() {
		m.screen = tasksScreen
	}
	return m
}

// OnLoginScreen reports whether the login screen is shown.
func (m Model) OnLoginScreen() bool { return m.screen == loginScreen }

// Controller returns the controller of the current activation.
func (m Model) Controller() *view.Controller { return m.ctrl }

func (m Model) Init() tea.Cmd {
	if m.screen == tasksScreen {
		return m.load()
	}
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
	case loginDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m.handleLogin(msg)
	case tasksLoadedMsg:
		if msg.gen == m.gen {
			_ = m.ctrl.ApplyLoad(msg.tasks, msg.err)
			m.clampCursor()
		}
		return m, nil
	case taskUpdatedMsg:
		if msg.gen == m.gen {
			_ = m.ctrl.ApplyUpdate(msg.task, msg.err)
			m.clampCursor()
		}
		return m, nil
	case taskDeletedMsg:
		if msg.gen == m.gen {
			_ = m.ctrl.ApplyDelete(msg.id, msg.err)
			m.clampCursor()
		}
		return m, nil
	}

	if m.screen == loginScreen {
		return m.updateLogin(msg)
	}
	return m.updateTasks(msg)
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			cmd := m.switchFocus()
			return m, cmd
		case tea.KeyEnter:
			if m.username.Focused() {
				cmd := m.switchFocus()
				return m, cmd
			}
			return m.submitLogin()
		}
	}

	var uCmd, pCmd tea.Cmd
	m.username, uCmd = m.username.Update(msg)
	m.password, pCmd = m.password.Update(msg)
	return m, tea.Batch(uCmd, pCmd)
}

func (m *Model) switchFocus() tea.Cmd {
	if m.username.Focused() {
		m.username.Blur()
		return m.password.Focus()
	}
	m.password.Blur()
	return m.username.Focus()
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.loggingIn {
		return m, nil
	}
	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()
	if username == "" || password == "" {
		m.loginErr = "username and password required"
		return m, nil
	}

	m.loggingIn = true
	m.loginErr = ""
	gen := m.gen
	return m, func() tea.Msg {
		ctx, cancel := m.newContext()
		defer cancel()
		return loginDoneMsg{gen: gen, err: m.auth.Login(ctx, username, password)}
	}
}

func (m Model) handleLogin(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.loggingIn = false
	m.password.Reset()
	if msg.err != nil {
		m.l.Warn("login failed", "err", msg.err)
		m.loginErr = "Login failed: " + msg.err.Error()
		return m, nil
	}

	m.username.Reset()
	m.password.Blur()
	m.username.Focus()
	return m.activate()
}

// activate starts a new task list activation after login.
func (m Model) activate() (tea.Model, tea.Cmd) {
	if !m.gate.Check(auth.TasksPath).Allowed() {
		m.screen = loginScreen
		return m, textinput.Blink
	}
	m.gen++
	m.screen = tasksScreen
	m.ctrl = view.NewController(m.svc, m.l)
	m.cursor = 0
	m.alert = ""
	return m, m.load()
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if err := m.auth.Logout(); err != nil {
		m.l.Error("logout failed", "err", err)
		m.alert = "Failed to log out: " + err.Error()
		return m, nil
	}
	m.gen++
	m.screen = loginScreen
	m.loginErr = ""
	m.alert = ""
	return m, textinput.Blink
}

func (m Model) updateTasks(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "j", "down":
		m.cursor++
		m.clampCursor()
	case "k", "up":
		m.cursor--
		m.clampCursor()
	case "f":
		m.ctrl.SetFilter(m.ctrl.Filter().Next())
		m.clampCursor()
	case "r":
		return m, m.load()
	case "t":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		patch, ok := m.ctrl.ToggleTarget(task.ID)
		if !ok {
			return m, nil
		}
		return m, m.update(task.ID, patch)
	case "c":
		if task, ok := m.selected(); ok {
			return m, m.update(task.ID, service.StatusPatch(service.StatusDone))
		}
	case "d":
		if task, ok := m.selected(); ok {
			return m, m.delete(task.ID)
		}
	case "l":
		return m.logout()
	}
	return m, nil
}

// load, update and delete mark the controller busy and return the request
// as a command. They return nil while another request is outstanding.

func (m Model) load() tea.Cmd {
	if err := m.ctrl.Begin(); err != nil {
		return nil
	}
	gen := m.gen
	return func() tea.Msg {
		ctx, cancel := m.newContext()
		defer cancel()
		tasks, err := m.svc.List(ctx)
		return tasksLoadedMsg{gen: gen, tasks: tasks, err: err}
	}
}

func (m Model) update(id string, patch service.TaskPatch) tea.Cmd {
	if err := m.ctrl.Begin(); err != nil {
		return nil
	}
	gen := m.gen
	return func() tea.Msg {
		ctx, cancel := m.newContext()
		defer cancel()
		task, err := m.svc.Update(ctx, id, patch)
		return taskUpdatedMsg{gen: gen, task: task, err: err}
	}
}

func (m Model) delete(id string) tea.Cmd {
	if err := m.ctrl.Begin(); err != nil {
		return nil
	}
	gen := m.gen
	return func() tea.Msg {
		ctx, cancel := m.newContext()
		defer cancel()
		return taskDeletedMsg{gen: gen, id: id, err: m.svc.Delete(ctx, id)}
	}
}

func (m Model) newContext() (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(m.ctx, m.timeout)
	}
	return context.WithCancel(m.ctx)
}

func (m Model) selected() (service.Task, bool) {
	visible := m.ctrl.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return service.Task{}, false
	}
	return visible[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.screen == loginScreen {
		return m.loginView()
	}
	return m.tasksView()
}

func (m Model) loginView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("taskctl login"))
	b.WriteString("\n\nUsername\n")
	b.WriteString(m.username.View())
	b.WriteString("\n\nPassword\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	if m.loggingIn {
		b.WriteString(faintStyle.Render("signing in..."))
		b.WriteString("\n\n")
	}
	if m.loginErr != "" {
		b.WriteString(errorStyle.Render(m.loginErr))
		b.WriteString("\n\n")
	}
	b.WriteString(faintStyle.Render(loginHelp))
	b.WriteRune('\n')
	return b.String()
}

func (m Model) tasksView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString("  ")
	b.WriteString(faintStyle.Render("filter: " + string(m.ctrl.Filter())))
	b.WriteString("\n\n")

	switch m.ctrl.State() {
	case view.Loading:
		b.WriteString(faintStyle.Render("loading tasks..."))
		b.WriteString("\n")
	case view.Failed:
		b.WriteString(faintStyle.Render("press r to retry"))
		b.WriteString("\n")
	case view.Loaded:
		b.WriteString(m.renderTasks())
	}

	if m.ctrl.Busy() && m.ctrl.State() != view.Loading {
		b.WriteString("\n")
		b.WriteString(faintStyle.Render("working..."))
		b.WriteString("\n")
	}
	for _, msg := range []string{m.ctrl.Notice(), m.alert} {
		if msg != "" {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render(tasksHelp))
	b.WriteRune('\n')
	return b.String()
}

func (m Model) renderTasks() string {
	visible := m.ctrl.Visible()
	if len(visible) == 0 {
		return faintStyle.Render("no tasks") + "\n"
	}

	r := lipgloss.DefaultRenderer()
	var lines []string
	for i, t := range visible {
		line := fmt.Sprintf("%s  %-10s  %s", output.StatusCell(r, t.Status), t.DueDate.Date(), output.NormalizeTitle(t.Title))
		if i == m.cursor {
			line = "> " + selectedStyle.Render(line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}

	if task, ok := m.selected(); ok && strings.TrimSpace(task.Description) != "" {
		lines = append(lines, "", faintStyle.Render(task.Description))
	}
	return strings.Join(lines, "\n") + "\n"
}
