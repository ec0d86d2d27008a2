package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwidla/teleop"
)

// Styles maps a Theme to lipgloss styles for console rendering.
type Styles struct {
	UserMsg  lipgloss.Style
	Thinking lipgloss.Style
	Plan     lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t teleop.Theme) Styles {
	return Styles{
		UserMsg:  lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		Thinking: lipgloss.NewStyle().Foreground(ansiColor(t.Thinking)).Faint(true),
		Plan:     lipgloss.NewStyle().Foreground(ansiColor(t.Plan)),
		Error:    lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:  lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:    lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:   lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
