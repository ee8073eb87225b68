package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(false)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
)

const (
	loginHelp = "enter submit • tab switch field • esc quit"
	tasksHelp = "j/k move • f filter • t toggle • c complete • d delete • r reload • l logout • q quit"
)
