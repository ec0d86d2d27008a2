package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/gate"
	"github.com/mwidla/teleop/markdown"
)

// Interface compliance checks.
var (
	_ MessageBlock = (*UserBlock)(nil)
	_ MessageBlock = (*AssistantBlock)(nil)
	_ MessageBlock = (*ThinkingBlock)(nil)
	_ MessageBlock = (*PlanBlock)(nil)
	_ MessageBlock = (*ResultBlock)(nil)
	_ MessageBlock = (*ErrorBlock)(nil)
)

// UserBlock renders an operator message with a "> " prefix.
type UserBlock struct {
	text   string
	styles Styles
}

// NewUserBlock creates a UserBlock.
func NewUserBlock(text string, styles Styles) *UserBlock {
	return &UserBlock{text: text, styles: styles}
}

func (b *UserBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) { return b, nil }

func (b *UserBlock) View(width int) string {
	content := b.styles.UserMsg.Render("> ") + b.text
	return lipgloss.NewStyle().Width(width).Render(content)
}

// AssistantBlock renders the model's response as terminal markdown.
type AssistantBlock struct {
	text  string
	theme teleop.Theme
}

// NewAssistantBlock creates an AssistantBlock.
func NewAssistantBlock(text string, theme teleop.Theme) *AssistantBlock {
	return &AssistantBlock{text: text, theme: theme}
}

func (b *AssistantBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) { return b, nil }

func (b *AssistantBlock) View(width int) string {
	return markdown.Render(b.text, width, b.theme)
}

// ThinkingBlock renders model reasoning behind a collapsible toggle. It
// starts collapsed; reasoning is context, not the answer.
type ThinkingBlock struct {
	text      string
	collapsed bool
	styles    Styles
}

// NewThinkingBlock creates a collapsed ThinkingBlock.
func NewThinkingBlock(text string, styles Styles) *ThinkingBlock {
	return &ThinkingBlock{text: text, collapsed: true, styles: styles}
}

func (b *ThinkingBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *ThinkingBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	indicator := "▶"
	if !b.collapsed {
		indicator = "▼"
	}
	header := b.styles.Thinking.Render(wrap.Render(indicator + " Thinking"))
	if b.collapsed {
		return header
	}
	return header + "\n" + b.styles.Thinking.Render(wrap.Render(b.text))
}

// PlanBlock renders a proposed tool call before it executes, so the
// operator sees the plan while deciding on it.
type PlanBlock struct {
	name   string
	args   map[string]any
	styles Styles
}

// NewPlanBlock creates a PlanBlock.
func NewPlanBlock(name string, args map[string]any, styles Styles) *PlanBlock {
	return &PlanBlock{name: name, args: args, styles: styles}
}

func (b *PlanBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) { return b, nil }

func (b *PlanBlock) View(width int) string {
	content := b.styles.Plan.Render("→ "+b.name) + "(" + formatArgs(b.args) + ")"
	return lipgloss.NewStyle().Width(width).Render(content)
}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, args[k])
	}
	return strings.Join(parts, ", ")
}

const maxPreviewWidth = 60

// ResultBlock renders a tool outcome behind a collapsible toggle. Successes
// start collapsed with a one-line preview; failures start and stay
// expanded.
type ResultBlock struct {
	name      string
	result    teleop.ToolResult
	collapsed bool
	styles    Styles
}

// NewResultBlock creates a ResultBlock.
func NewResultBlock(name string, result teleop.ToolResult, styles Styles) *ResultBlock {
	return &ResultBlock{
		name:      name,
		result:    result,
		collapsed: result.OK(),
		styles:    styles,
	}
}

func (b *ResultBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	if _, ok := msg.(ToggleMsg); ok && b.result.OK() {
		b.collapsed = !b.collapsed
	}
	return b, nil
}

func (b *ResultBlock) View(width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	if !b.result.OK() {
		header := b.styles.Plan.Render("▼ "+b.name) + " " + b.styles.Error.Render("✗")
		return wrap.Render(header + "\n" + b.styles.Error.Render(b.result.Err))
	}
	if b.collapsed {
		header := b.styles.Plan.Render("▶ "+b.name) + " " + b.styles.Success.Render("✓")
		if b.result.Value != "" {
			preview := runewidth.Truncate(firstLine(b.result.Value), maxPreviewWidth, "…")
			header += "  " + preview
		}
		return wrap.Render(header)
	}
	header := b.styles.Plan.Render("▼ "+b.name) + " " + b.styles.Success.Render("✓")
	return wrap.Render(header + "\n" + b.result.Value)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ErrorBlock renders a turn-level error.
type ErrorBlock struct {
	text   string
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(text string, styles Styles) *ErrorBlock {
	return &ErrorBlock{text: text, styles: styles}
}

func (b *ErrorBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) { return b, nil }

func (b *ErrorBlock) View(width int) string {
	content := b.styles.Error.Render("Error: " + b.text)
	return lipgloss.NewStyle().Width(width).Render(content)
}

// ApprovalBlock renders the pending approval prompt for a planned call.
type ApprovalBlock struct {
	plan   gate.Plan
	styles Styles
}

// NewApprovalBlock creates an ApprovalBlock.
func NewApprovalBlock(plan gate.Plan, styles Styles) *ApprovalBlock {
	return &ApprovalBlock{plan: plan, styles: styles}
}

func (b *ApprovalBlock) Update(tea.Msg) (MessageBlock, tea.Cmd) { return b, nil }

func (b *ApprovalBlock) View(width int) string {
	var sb strings.Builder
	sb.WriteString(b.styles.Accent.Render("Approve " + b.plan.Function + "?"))
	if b.plan.Reasoning != "" {
		sb.WriteString("\n" + b.styles.Muted.Render(b.plan.Reasoning))
	}
	for _, p := range b.plan.Params {
		sb.WriteString(fmt.Sprintf("\n  %s = %v", p.Name, p.Value))
	}
	sb.WriteString("\n" + b.styles.Muted.Render("[y] approve  [n] reject"))
	return lipgloss.NewStyle().Width(width).Render(sb.String())
}
