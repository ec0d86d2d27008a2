package tui

import tea "github.com/charmbracelet/bubbletea"

// MessageBlock is one renderable element in the transcript. Unlike
// tea.Model, View takes a width so the root model controls layout and
// blocks stay testable in isolation.
type MessageBlock interface {
	Update(tea.Msg) (MessageBlock, tea.Cmd)
	View(width int) string
}

// ToggleMsg tells a collapsible block to toggle its collapsed state.
type ToggleMsg struct{}
