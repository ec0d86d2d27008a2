// Package codegen implements the code-generation backend: instead of native
// function calling, the model writes a script against the tool API and the
// script runs in an external sandbox, behind the same approval gate.
package codegen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/catalog"
	"github.com/mwidla/teleop/gate"
)

// ScriptFunction is the gate registration name for generated-script
// execution. Operators approve the script itself, not individual calls.
const ScriptFunction = "execute_script"

// Runner executes a generated script and returns its combined output. The
// sandboxing engine behind it is an external collaborator.
type Runner interface {
	Run(ctx context.Context, code string) (string, error)
}

const defaultSystemPrompt = "You are a robot tele-operation assistant. " +
	"Write a short Python script that uses the robot API documented below " +
	"to carry out the operator's request. Reply with a single fenced code " +
	"block; anything outside the block is shown to the operator as " +
	"commentary. If no robot action is needed, reply in plain text without " +
	"a code block."

// Machine is the code-generation conversation backend. Like the
// function-calling backend it retains no turn-to-turn memory.
type Machine struct {
	completer teleop.Completer
	catalog   *catalog.Catalog
	gate      *gate.Executor
	notifier  teleop.Notifier
	logger    *zap.Logger

	systemPrompt string
	model        string
	temperature  *float64
	maxTokens    int
}

// Option configures a [Machine].
type Option func(*Machine)

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(m *Machine) { m.systemPrompt = prompt }
}

// WithModel sets the model ID for completion requests.
func WithModel(model string) Option {
	return func(m *Machine) { m.model = model }
}

// WithTemperature sets the sampling temperature. Nil means backend default.
func WithTemperature(temp *float64) Option {
	return func(m *Machine) { m.temperature = temp }
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(n int) Option {
	return func(m *Machine) { m.maxTokens = n }
}

// WithNotifier sets the lifecycle event sink.
func WithNotifier(n teleop.Notifier) Option {
	return func(m *Machine) { m.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// New creates a Machine. The runner is registered with the gate under
// ScriptFunction so script execution goes through the same approval
// protocol as direct tool calls.
func New(completer teleop.Completer, cat *catalog.Catalog, g *gate.Executor, runner Runner, opts ...Option) *Machine {
	m := &Machine{
		completer:    completer,
		catalog:      cat,
		gate:         g,
		notifier:     teleop.NopNotifier{},
		logger:       zap.NewNop(),
		systemPrompt: defaultSystemPrompt,
	}
	for _, o := range opts {
		o(m)
	}

	g.Register(ScriptFunction,
		func(ctx context.Context, args map[string]any) teleop.ToolResult {
			code, _ := args["code"].(string)
			out, err := runner.Run(ctx, code)
			if err != nil {
				return teleop.Failf("script failed: %s", err)
			}
			return teleop.Ok(out)
		},
		gate.WithReasoning("Run the generated script against the robot."),
		gate.WithParams([]teleop.Parameter{
			{Name: "code", Type: "string", Description: "Generated script source"},
		}))

	return m
}

// Reset clears transient conversation state; the machine keeps none.
func (m *Machine) Reset() {}

// ProcessMessage runs one turn: generate a script, gate its execution, and
// summarize the outcome. The envelope always carries a message or an error.
func (m *Machine) ProcessMessage(ctx context.Context, text string) *teleop.Envelope {
	if strings.TrimSpace(text) == "" {
		err := "empty user message"
		m.notifier.Publish(teleop.EventError{Text: err})
		return &teleop.Envelope{Error: err, ToolCalls: []teleop.ToolCallRecord{}}
	}

	messages := []teleop.Message{
		teleop.SystemMessage{Content: m.systemPrompt + "\n\n" + m.apiDoc()},
		teleop.UserMessage{Content: text, Timestamp: time.Now()},
	}

	completion, err := m.completer.Complete(ctx, teleop.Request{
		Model:       m.model,
		Messages:    messages,
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	})
	if err != nil {
		msg := fmt.Sprintf("model call failed: %s", err)
		m.notifier.Publish(teleop.EventError{Text: msg})
		return &teleop.Envelope{Error: msg, ToolCalls: []teleop.ToolCallRecord{}}
	}

	code, commentary := extractCode(completion.Content)
	if code == "" {
		// No script: the model answered directly.
		if completion.Content == "" {
			return &teleop.Envelope{Error: "model returned an empty response", ToolCalls: []teleop.ToolCallRecord{}}
		}
		m.notifier.Publish(teleop.EventComplete{Text: completion.Content})
		return &teleop.Envelope{Message: completion.Content, ToolCalls: []teleop.ToolCallRecord{}}
	}

	if commentary != "" {
		m.notifier.Publish(teleop.EventThinking{Text: commentary})
	}

	callID := uuid.NewString()
	m.notifier.Publish(teleop.EventFunctionCall{
		ID:        callID,
		Name:      ScriptFunction,
		Arguments: map[string]any{"code": code},
	})

	res := m.gate.Execute(ctx, callID, ScriptFunction, commentary, map[string]any{"code": code})
	record := teleop.ToolCallRecord{
		Name:      ScriptFunction,
		Arguments: map[string]any{"code": code},
		Result:    res,
	}

	final := m.summarize(ctx, text, code, res)
	env := &teleop.Envelope{
		Message:   final,
		ToolCalls: []teleop.ToolCallRecord{record},
	}
	if final == "" {
		env.Error = "model returned an empty response"
		m.notifier.Publish(teleop.EventError{Text: env.Error})
		return env
	}
	m.notifier.Publish(teleop.EventComplete{Text: final})
	return env
}

// summarize asks the model to report the script outcome to the operator.
// If the closing call fails, fall back to the raw output so the turn still
// produces an answer.
func (m *Machine) summarize(ctx context.Context, request, code string, res teleop.ToolResult) string {
	outcome := "Script output:\n" + res.Value
	if !res.OK() {
		outcome = "Script failed:\n" + res.Err
	}

	completion, err := m.completer.Complete(ctx, teleop.Request{
		Model: m.model,
		Messages: []teleop.Message{
			teleop.SystemMessage{Content: "Summarize the result of the robot script for the operator in one or two sentences."},
			teleop.UserMessage{
				Content:   fmt.Sprintf("Request: %s\n\nScript:\n%s\n\n%s", request, code, outcome),
				Timestamp: time.Now(),
			},
		},
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	})
	if err != nil {
		m.logger.Warn("summary call failed, returning raw outcome", zap.Error(err))
		return outcome
	}
	if completion.Content == "" {
		return outcome
	}
	return completion.Content
}

// apiDoc renders the shared catalog as pseudo function signatures for the
// generation prompt.
func (m *Machine) apiDoc() string {
	schemas := m.catalog.Schemas()
	var b strings.Builder
	b.WriteString("Robot API:\n")
	for _, s := range schemas {
		params := make([]string, len(s.Parameters))
		for i, p := range s.Parameters {
			params[i] = p.Name
		}
		fmt.Fprintf(&b, "  %s(%s) — %s\n", s.Name, strings.Join(params, ", "), s.Description)
	}
	return b.String()
}

// extractCode pulls the first fenced code block out of the response. The
// remaining text is commentary.
func extractCode(content string) (code, commentary string) {
	start := strings.Index(content, "```")
	if start < 0 {
		return "", content
	}
	rest := content[start+3:]
	// Drop the language tag line if present.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		first := strings.TrimSpace(rest[:nl])
		if first != "" && !strings.ContainsAny(first, " \t") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", content
	}
	code = strings.TrimSpace(rest[:end])
	commentary = strings.TrimSpace(content[:start] + rest[end+3:])
	return code, commentary
}
