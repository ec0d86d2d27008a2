package tui_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/gate"
	"github.com/mwidla/teleop/tui"
)

// session is a scripted test double for tui.Session.
type session struct {
	notifier teleop.Notifier
	reply    string
	mode     teleop.Mode
	resets   int
	tools    []teleop.ToolSchema
}

func (s *session) ProcessMessage(_ context.Context, text string) *teleop.Envelope {
	if s.notifier != nil {
		s.notifier.Publish(teleop.EventComplete{Text: s.reply})
	}
	return &teleop.Envelope{Message: s.reply, Mode: s.mode}
}

func (s *session) SetMode(mode teleop.Mode) error {
	if !mode.Valid() {
		return teleop.ErrInvalidMode
	}
	s.mode = mode
	return nil
}

func (s *session) Mode() teleop.Mode                  { return s.mode }
func (s *session) ResetConversation()                 { s.resets++ }
func (s *session) AvailableTools() []teleop.ToolSchema { return s.tools }

func newModel(s *session) (tui.Model, chan teleop.Event, *tui.Approver) {
	events := make(chan teleop.Event, 16)
	approver := tui.NewApprover()
	m := tui.New(s, events, approver, teleop.DefaultTheme())
	return m, events, approver
}

func sized(t *testing.T, m tui.Model) tui.Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model, ok := updated.(tui.Model)
	require.True(t, ok)
	return model
}

func TestModel_EventBlocksAppearInTranscript(t *testing.T) {
	t.Parallel()

	m, _, _ := newModel(&session{mode: teleop.ModeFunctionCalling})
	m = sized(t, m)

	for _, evt := range []teleop.Event{
		teleop.EventThinking{Text: "considering the arm"},
		teleop.EventFunctionCall{ID: "c1", Name: "arm_move", Arguments: map[string]any{"pose": "home"}},
		teleop.EventToolResult{ID: "c1", Name: "arm_move", Result: teleop.Ok("arm at home")},
		teleop.EventComplete{Text: "Done, the arm is home."},
	} {
		updated, _ := m.Update(tui.EventMsg{Event: evt})
		m = updated.(tui.Model)
	}

	view := m.View()
	assert.Contains(t, view, "Thinking")
	assert.Contains(t, view, "arm_move")
	assert.Contains(t, view, "pose=home")
	assert.Contains(t, view, "the arm is home")
}

func TestModel_ErrorEventRendersErrorBlock(t *testing.T) {
	t.Parallel()

	m, _, _ := newModel(&session{mode: teleop.ModeFunctionCalling})
	m = sized(t, m)

	updated, _ := m.Update(tui.EventMsg{Event: teleop.EventError{Text: "completion API unreachable"}})
	m = updated.(tui.Model)

	assert.Contains(t, m.View(), "Error: completion API unreachable")
}

func TestModel_SubmitRunsTurn(t *testing.T) {
	t.Parallel()

	s := &session{mode: teleop.ModeFunctionCalling, reply: "On it."}
	m, _, _ := newModel(s)
	m = sized(t, m)

	m.Input.SetValue("stow the arm")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(tui.Model)

	assert.True(t, m.Running())
	assert.Contains(t, m.View(), "> stow the arm")
	require.NotNil(t, cmd)

	msg := cmd()
	done, ok := msg.(tui.TurnDoneMsg)
	require.True(t, ok)
	assert.Equal(t, "On it.", done.Envelope.Message)

	updated, _ = m.Update(done)
	m = updated.(tui.Model)
	assert.False(t, m.Running())
}

func TestModel_ApprovalFlow(t *testing.T) {
	t.Parallel()

	m, _, approver := newModel(&session{mode: teleop.ModeFunctionCalling})
	m = sized(t, m)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	decision := make(chan bool, 1)
	go func() {
		approved, err := approver.Approve(ctx, plan("arm_move"))
		if err != nil {
			approved = false
		}
		decision <- approved
	}()

	req := <-approver.Requests()
	updated, _ := m.Update(tui.ApprovalMsg{Request: req})
	m = updated.(tui.Model)
	assert.Contains(t, m.View(), "Approve arm_move?")
	assert.Contains(t, m.View(), "Awaiting approval")

	// Regular typing is ignored while the prompt is up.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m = updated.(tui.Model)
	assert.Empty(t, m.Input.Value())

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	m = updated.(tui.Model)

	assert.True(t, <-decision)
	assert.NotContains(t, m.View(), "Awaiting approval")
}

func TestModel_ApprovalRejection(t *testing.T) {
	t.Parallel()

	m, _, approver := newModel(&session{mode: teleop.ModeFunctionCalling})
	m = sized(t, m)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	decision := make(chan bool, 1)
	go func() {
		approved, _ := approver.Approve(ctx, plan("base_move"))
		decision <- approved
	}()

	req := <-approver.Requests()
	updated, _ := m.Update(tui.ApprovalMsg{Request: req})
	m = updated.(tui.Model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	_ = updated.(tui.Model)

	assert.False(t, <-decision)
}

func TestApprover_ContextCancellation(t *testing.T) {
	t.Parallel()

	approver := tui.NewApprover()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := approver.Approve(ctx, plan("arm_move"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestModel_SlashCommands(t *testing.T) {
	t.Parallel()

	t.Run("mode switch", func(t *testing.T) {
		t.Parallel()
		s := &session{mode: teleop.ModeFunctionCalling}
		m, _, _ := newModel(s)
		m = sized(t, m)

		m.Input.SetValue("/mode codegen")
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(tui.Model)

		assert.Equal(t, teleop.ModeCodeGen, s.mode)
		assert.False(t, m.Running())
	})

	t.Run("invalid mode shows error", func(t *testing.T) {
		t.Parallel()
		m, _, _ := newModel(&session{mode: teleop.ModeFunctionCalling})
		m = sized(t, m)

		m.Input.SetValue("/mode telepathy")
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(tui.Model)

		assert.Contains(t, m.View(), "Error:")
	})

	t.Run("reset", func(t *testing.T) {
		t.Parallel()
		s := &session{mode: teleop.ModeFunctionCalling}
		m, _, _ := newModel(s)
		m = sized(t, m)

		m.Input.SetValue("/reset")
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		_ = updated.(tui.Model)

		assert.Equal(t, 1, s.resets)
	})

	t.Run("tools lists the catalog", func(t *testing.T) {
		t.Parallel()
		s := &session{
			mode: teleop.ModeFunctionCalling,
			tools: []teleop.ToolSchema{
				{Name: "arm_move", Description: "Move the arm."},
				{Name: "battery_status", Description: "Battery charge."},
			},
		}
		m, _, _ := newModel(s)
		m = sized(t, m)

		m.Input.SetValue("/tools")
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(tui.Model)

		view := m.View()
		assert.Contains(t, view, "arm_move")
		assert.Contains(t, view, "battery_status")
	})
}

func TestModel_TabTogglesLastCollapsible(t *testing.T) {
	t.Parallel()

	m, _, _ := newModel(&session{mode: teleop.ModeFunctionCalling})
	m = sized(t, m)

	updated, _ := m.Update(tui.EventMsg{Event: teleop.EventThinking{Text: "route planning details"}})
	m = updated.(tui.Model)
	assert.NotContains(t, m.View(), "route planning details")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(tui.Model)
	assert.Contains(t, m.View(), "route planning details")
}

func TestModel_EndToEnd(t *testing.T) {
	t.Parallel()

	events := make(chan teleop.Event, 16)
	s := &session{mode: teleop.ModeFunctionCalling, reply: "Arm stowed."}
	s.notifier = chanNotifier(events)
	approver := tui.NewApprover()
	m := tui.New(s, events, approver, teleop.DefaultTheme())

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

	tm.Type("stow the arm")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Arm stowed."))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	final, ok := fm.(tui.Model)
	require.True(t, ok)
	assert.False(t, final.Running())
}

func plan(fn string) gate.Plan {
	return gate.Plan{Function: fn, Params: []gate.Param{{Name: "pose", Value: "home"}}}
}

// chanNotifier publishes events into a channel, dropping when full.
type chanNotifier chan teleop.Event

func (c chanNotifier) Publish(e teleop.Event) {
	select {
	case c <- e:
	default:
	}
}
