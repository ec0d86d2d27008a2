// Package tui is the Bubble Tea operator console: a scrollable transcript
// of conversation blocks, a textarea for requests, and an inline approval
// prompt wired into the approval gate.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwidla/teleop"
)

// Session is the conversation surface the console drives. *router.Router
// satisfies it.
type Session interface {
	ProcessMessage(ctx context.Context, text string) *teleop.Envelope
	SetMode(mode teleop.Mode) error
	Mode() teleop.Mode
	ResetConversation()
	AvailableTools() []teleop.ToolSchema
}

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits; cancelling ctx quits it.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// EventMsg wraps a lifecycle notification for delivery to the model.
type EventMsg struct {
	Event teleop.Event
}

// TurnDoneMsg signals that the active turn finished.
type TurnDoneMsg struct {
	Envelope *teleop.Envelope
}

// ApprovalMsg asks the operator to decide on a planned tool call.
type ApprovalMsg struct {
	Request ApprovalRequest
}
