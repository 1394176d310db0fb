package tui

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("#7c3aed")
	success = lipgloss.Color("#10b981")
	danger  = lipgloss.Color("#ef4444")
	muted   = lipgloss.Color("#737373")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fafafa")).MarginBottom(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(primary).Bold(true)
	checkedStyle  = lipgloss.NewStyle().Foreground(success)
	mutedStyle    = lipgloss.NewStyle().Foreground(muted)
	errorStyle    = lipgloss.NewStyle().Foreground(danger).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(success).Bold(true)
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a78bfa"))
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#404040")).
			Padding(0, 1)
)
