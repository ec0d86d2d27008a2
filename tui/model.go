package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwidla/teleop"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the operator console.
type Model struct {
	// Input is the request textarea. Exported for test access.
	Input textarea.Model
	// Viewport is the scrollable transcript. Exported for test access.
	Viewport viewport.Model

	session   Session
	events    <-chan teleop.Event
	approvals <-chan ApprovalRequest
	theme     teleop.Theme
	styles    Styles

	blocks     []MessageBlock
	blockFocus int // index of focused collapsible block (-1 = none)

	running bool
	cancel  context.CancelFunc
	pending *ApprovalRequest
	ready   bool
}

// New creates a console model. events is the session's notification
// subscription; approver carries decisions back to the gate.
func New(session Session, events <-chan teleop.Event, approver *Approver, theme teleop.Theme) Model {
	ta := textarea.New()
	ta.Placeholder = "Tell the robot what to do..."
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	return Model{
		Input:      ta,
		session:    session,
		events:     events,
		approvals:  approver.Requests(),
		theme:      theme,
		styles:     NewStyles(theme),
		blockFocus: -1,
	}
}

// Running reports whether a turn is in flight.
func (m Model) Running() bool { return m.running }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		listenForEvent(m.events),
		listenForApproval(m.approvals),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		m = m.appendEventBlock(msg.Event)
		m.refreshViewport()
		return m, listenForEvent(m.events)

	case ApprovalMsg:
		req := msg.Request
		m.pending = &req
		m.blocks = append(m.blocks, NewApprovalBlock(req.Plan, m.styles))
		m.refreshViewport()
		return m, nil

	case TurnDoneMsg:
		m.running = false
		m.cancel = nil
		m = m.updateBlockFocus()
		m.refreshViewport()
		return m, m.Input.Focus()
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	statusHeight := 1
	separators := 2
	vpHeight := msg.Height - m.Input.Height() - statusHeight - separators
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.SetWidth(msg.Width)
	m.refreshViewport()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A pending approval owns the keyboard until the operator decides.
	if m.pending != nil {
		switch msg.String() {
		case "y", "Y":
			return m.resolveApproval(true)
		case "n", "N":
			return m.resolveApproval(false)
		case "ctrl+c":
			res, cmd := m.resolveApproval(false)
			model := res.(Model)
			if model.cancel != nil {
				model.cancel()
			}
			return model, cmd
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submit(text)

	case tea.KeyTab:
		if !m.running && m.blockFocus >= 0 {
			block, cmd := m.blocks[m.blockFocus].Update(ToggleMsg{})
			m.blocks[m.blockFocus] = block
			m.Viewport.SetContent(m.renderContent())
			return m, cmd
		}
		return m, nil

	case tea.KeyShiftTab:
		if !m.running {
			m = m.cycleFocusPrev()
			m.Viewport.SetContent(m.renderContent())
		}
		return m, nil
	}

	// When idle, keys go to the textarea; non-rune keys also scroll the
	// viewport ('j'/'k' would otherwise both scroll and type).
	if !m.running {
		var cmds []tea.Cmd
		var cmd tea.Cmd
		if msg.Type != tea.KeyRunes {
			m.Viewport, cmd = m.Viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) resolveApproval(approved bool) (tea.Model, tea.Cmd) {
	if approved {
		m.pending.Approve()
	} else {
		m.pending.Reject()
	}
	m.pending = nil
	return m, listenForApproval(m.approvals)
}

func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	m.Input.Reset()

	if strings.HasPrefix(text, "/") {
		return m.command(text)
	}

	m.blocks = append(m.blocks, NewUserBlock(text, m.styles))
	m.refreshViewport()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.running = true
	m.Input.Blur()

	session := m.session
	return m, func() tea.Msg {
		return TurnDoneMsg{Envelope: session.ProcessMessage(ctx, text)}
	}
}

// command handles operator slash commands locally, without a model turn.
func (m Model) command(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit":
		return m, tea.Quit

	case "/reset":
		m.session.ResetConversation()
		m = m.note("Conversation reset.")

	case "/mode":
		if len(fields) < 2 {
			m = m.note(fmt.Sprintf("Current mode: %s. Usage: /mode <%s|%s>",
				m.session.Mode(), teleop.ModeFunctionCalling, teleop.ModeCodeGen))
			break
		}
		if err := m.session.SetMode(teleop.Mode(fields[1])); err != nil {
			m.blocks = append(m.blocks, NewErrorBlock(err.Error(), m.styles))
			break
		}
		m = m.note("Mode set to " + fields[1] + ".")

	case "/tools":
		var sb strings.Builder
		sb.WriteString("Available tools:\n")
		for _, s := range m.session.AvailableTools() {
			sb.WriteString(fmt.Sprintf("- **%s** — %s\n", s.Name, s.Description))
		}
		m.blocks = append(m.blocks, NewAssistantBlock(sb.String(), m.theme))

	default:
		m = m.note("Unknown command. Available: /mode, /reset, /tools, /quit.")
	}
	m.refreshViewport()
	return m, nil
}

func (m Model) note(text string) Model {
	m.blocks = append(m.blocks, NewAssistantBlock(text, m.theme))
	return m
}

func (m Model) appendEventBlock(evt teleop.Event) Model {
	switch e := evt.(type) {
	case teleop.EventThinking:
		m.blocks = append(m.blocks, NewThinkingBlock(e.Text, m.styles))
	case teleop.EventFunctionCall:
		m.blocks = append(m.blocks, NewPlanBlock(e.Name, e.Arguments, m.styles))
	case teleop.EventToolResult:
		m.blocks = append(m.blocks, NewResultBlock(e.Name, e.Result, m.styles))
	case teleop.EventError:
		m.blocks = append(m.blocks, NewErrorBlock(e.Text, m.styles))
	case teleop.EventComplete:
		if e.Text != "" {
			m.blocks = append(m.blocks, NewAssistantBlock(e.Text, m.theme))
		}
	}
	return m.updateBlockFocus()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

// updateBlockFocus points blockFocus at the last collapsible block; only
// that one responds to Tab.
func (m Model) updateBlockFocus() Model {
	m.blockFocus = -1
	for i := len(m.blocks) - 1; i >= 0; i-- {
		switch m.blocks[i].(type) {
		case *ThinkingBlock, *ResultBlock:
			m.blockFocus = i
			return m
		}
	}
	return m
}

// cycleFocusPrev moves blockFocus to the previous collapsible block,
// wrapping around.
func (m Model) cycleFocusPrev() Model {
	start := m.blockFocus - 1
	if start < 0 {
		start = len(m.blocks) - 1
	}
	for i := range len(m.blocks) {
		idx := (start - i + len(m.blocks)) % len(m.blocks)
		switch m.blocks[idx].(type) {
		case *ThinkingBlock, *ResultBlock:
			m.blockFocus = idx
			return m
		}
	}
	m.blockFocus = -1
	return m
}

func (m Model) statusLine() string {
	if m.pending != nil {
		return m.styles.Accent.Render("Awaiting approval: " + m.pending.Plan.Function + "  [y/n]")
	}
	if m.running {
		return m.styles.Muted.Render("Working... (ctrl+c to interrupt)")
	}
	return m.styles.Muted.Render(fmt.Sprintf("mode: %s — enter to send, /tools /mode /reset /quit, ctrl+c to quit", m.session.Mode()))
}

func listenForEvent(ch <-chan teleop.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg{Event: evt}
	}
}

func listenForApproval(ch <-chan ApprovalRequest) tea.Cmd {
	return func() tea.Msg {
		req, ok := <-ch
		if !ok {
			return nil
		}
		return ApprovalMsg{Request: req}
	}
}
