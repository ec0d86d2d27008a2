// Package agent implements the turn-taking state machine that sits between
// the completion backend and the tool catalog: it decides, turn by turn,
// whether to call the model, execute tools through the approval gate, or
// terminate with a final response.
package agent

import (
	"go.uber.org/zap"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/catalog"
	"github.com/mwidla/teleop/gate"
)

const defaultSystemPrompt = "You are a robot tele-operation assistant. " +
	"Use the provided tools to carry out the operator's requests. " +
	"Every tool call is reviewed by the operator before it runs; explain " +
	"what you are about to do and why."

// defaultMaxModelCalls bounds the number of completion calls per turn so a
// misbehaving backend cannot keep a turn alive forever.
const defaultMaxModelCalls = 8

// Tool output sent back to the model is tail-truncated to keep request
// sizes bounded.
const (
	maxResultLines = 200
	maxResultBytes = 16 * 1024
)

// Machine is the function-calling conversation backend. It holds no
// turn-to-turn memory: every ProcessMessage call builds a fresh message
// sequence seeded with the system prompt and the new user message.
type Machine struct {
	completer teleop.Completer
	catalog   *catalog.Catalog
	gate      *gate.Executor
	notifier  teleop.Notifier
	logger    *zap.Logger

	systemPrompt  string
	model         string
	temperature   *float64
	maxTokens     int
	maxModelCalls int
}

// Option configures a [Machine].
type Option func(*Machine)

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(m *Machine) { m.systemPrompt = prompt }
}

// WithModel sets the model ID for completion requests. Empty string means
// the backend default.
func WithModel(model string) Option {
	return func(m *Machine) { m.model = model }
}

// WithTemperature sets the sampling temperature. Nil means backend default.
func WithTemperature(temp *float64) Option {
	return func(m *Machine) { m.temperature = temp }
}

// WithMaxTokens sets the completion token limit. Zero means backend default.
func WithMaxTokens(n int) Option {
	return func(m *Machine) { m.maxTokens = n }
}

// WithNotifier sets the lifecycle event sink.
func WithNotifier(n teleop.Notifier) Option {
	return func(m *Machine) { m.notifier = n }
}

// WithLogger sets the logger. Default is zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithMaxModelCalls caps completion calls per turn.
func WithMaxModelCalls(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxModelCalls = n
		}
	}
}

// New creates a Machine over the given completer, catalog, and gate.
func New(completer teleop.Completer, cat *catalog.Catalog, g *gate.Executor, opts ...Option) *Machine {
	m := &Machine{
		completer:     completer,
		catalog:       cat,
		gate:          g,
		notifier:      teleop.NopNotifier{},
		logger:        zap.NewNop(),
		systemPrompt:  defaultSystemPrompt,
		maxModelCalls: defaultMaxModelCalls,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Reset clears transient conversation state. The machine deliberately keeps
// none between turns, so this is a contract no-op; it exists so the router
// can treat both backends uniformly.
func (m *Machine) Reset() {}
