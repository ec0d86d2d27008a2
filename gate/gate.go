// Package gate makes every tool invocation observable and optionally
// interactive: plan display, operator approval, dry-run and mock escape
// hatches, and an append-only record of everything that was (or wasn't) run.
package gate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mwidla/teleop"
)

// entry is one registered callable with its display metadata.
type entry struct {
	impl      teleop.Implementation
	mock      teleop.Implementation
	params    []teleop.Parameter
	reasoning string
}

// Executor wraps callables so that invocation goes through plan display,
// approval, and result recording. It is independent of what the wrapped
// callables do.
type Executor struct {
	logger   *zap.Logger
	notifier teleop.Notifier
	approver Approver

	autoApprove bool
	dryRun      bool
	useMock     bool
	allow       Allowlist

	entries map[string]entry
	history []Record
}

// Option configures an [Executor].
type Option func(*Executor)

// WithAutoApprove approves every call without consulting the approver.
func WithAutoApprove(on bool) Option {
	return func(e *Executor) { e.autoApprove = on }
}

// WithDryRun skips real execution; approved calls return a synthetic
// "[DRY RUN]" success.
func WithDryRun(on bool) Option {
	return func(e *Executor) { e.dryRun = on }
}

// WithMocks substitutes a registered mock implementation for the real one
// where one exists.
func WithMocks(on bool) Option {
	return func(e *Executor) { e.useMock = on }
}

// WithApprover sets the interactive approval decision. Without an approver
// (and without auto-approve or a matching allowlist pattern) every call is
// rejected.
func WithApprover(a Approver) Option {
	return func(e *Executor) { e.approver = a }
}

// WithAllowlist auto-approves calls whose function name matches one of the
// allowlist patterns, without consulting the approver.
func WithAllowlist(a Allowlist) Option {
	return func(e *Executor) { e.allow = a }
}

// WithNotifier sets the sink for plan and outcome events.
func WithNotifier(n teleop.Notifier) Option {
	return func(e *Executor) { e.notifier = n }
}

// WithLogger sets the logger. Default is zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an Executor with no registered callables.
func New(opts ...Option) *Executor {
	e := &Executor{
		logger:   zap.NewNop(),
		notifier: teleop.NopNotifier{},
		entries:  make(map[string]entry),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RegisterOption configures one registration.
type RegisterOption func(*entry)

// WithMock registers a mock implementation alongside the real one.
func WithMock(impl teleop.Implementation) RegisterOption {
	return func(en *entry) { en.mock = impl }
}

// WithReasoning sets the default reasoning shown when the caller supplies
// none. Typically derived from the tool's description.
func WithReasoning(text string) RegisterOption {
	return func(en *entry) { en.reasoning = text }
}

// WithParams declares the callable's parameter order, used to build the
// display-ready parameter listing.
func WithParams(params []teleop.Parameter) RegisterOption {
	return func(en *entry) { en.params = params }
}

// Register associates name with a callable. Re-registering a name replaces
// the previous entry.
func (e *Executor) Register(name string, impl teleop.Implementation, opts ...RegisterOption) {
	en := entry{impl: impl}
	for _, o := range opts {
		o(&en)
	}
	e.entries[name] = en
}

// Execute runs the named callable through the full gate protocol:
// plan display, approval, execution-mode selection, invocation, and
// reporting. Failures never propagate as errors; every outcome is a
// ToolResult and a Record.
func (e *Executor) Execute(ctx context.Context, callID, name, reasoning string, args map[string]any) teleop.ToolResult {
	en, ok := e.entries[name]
	if !ok {
		res := teleop.Failf("%s: %s", teleop.ErrNotRegistered.Error(), name)
		e.report(callID, name, reasoning, nil, Record{Outcome: res})
		return res
	}

	if reasoning == "" {
		reasoning = en.reasoning
	}
	params := bindParams(en.params, args)

	e.notifier.Publish(teleop.EventThinking{Text: planText(name, reasoning, params)})
	e.logger.Info("planned tool call",
		zap.String("call_id", callID),
		zap.String("function", name),
		zap.String("reasoning", reasoning))

	approved, err := e.decide(ctx, Plan{CallID: callID, Function: name, Reasoning: reasoning, Params: params})
	if err != nil {
		res := teleop.Failf("approval failed: %s", err)
		e.report(callID, name, reasoning, params, Record{Outcome: res})
		return res
	}
	if !approved {
		res := teleop.Fail(teleop.ErrRejected.Error())
		e.report(callID, name, reasoning, params, Record{Outcome: res})
		return res
	}

	if e.dryRun {
		res := teleop.Ok(fmt.Sprintf("[DRY RUN] %s would execute with %s", name, formatParams(params)))
		e.report(callID, name, reasoning, params, Record{Approved: true, Outcome: res})
		return res
	}

	impl := en.impl
	if e.useMock && en.mock != nil {
		impl = en.mock
	}

	res := invoke(ctx, impl, args)
	e.report(callID, name, reasoning, params, Record{Approved: true, Executed: true, Outcome: res})
	return res
}

// decide resolves the approval step. Precedence: auto-approve, allowlist
// match, interactive approver, reject.
func (e *Executor) decide(ctx context.Context, plan Plan) (bool, error) {
	if e.autoApprove {
		return true, nil
	}
	if e.allow.Match(plan.Function) {
		return true, nil
	}
	if e.approver == nil {
		return false, nil
	}
	return e.approver.Approve(ctx, plan)
}

// invoke calls impl, converting a panic or misbehaving implementation into
// a failure result.
func invoke(ctx context.Context, impl teleop.Implementation, args map[string]any) (res teleop.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			res = teleop.Failf("tool panicked: %v", r)
		}
	}()
	return impl(ctx, args)
}

// report appends the record and publishes the outcome event.
func (e *Executor) report(callID, name, reasoning string, params []Param, rec Record) {
	rec.Time = time.Now()
	rec.CallID = callID
	rec.Function = name
	rec.Reasoning = reasoning
	rec.Params = params
	e.history = append(e.history, rec)

	e.notifier.Publish(teleop.EventToolResult{ID: callID, Name: name, Result: rec.Outcome})
	e.logger.Info("tool call reported",
		zap.String("call_id", callID),
		zap.String("function", name),
		zap.Bool("approved", rec.Approved),
		zap.Bool("executed", rec.Executed),
		zap.Bool("ok", rec.Outcome.OK()))
}

// History returns a copy of the session's execution records in order.
func (e *Executor) History() []Record {
	out := make([]Record, len(e.history))
	copy(out, e.history)
	return out
}

// bindParams orders args by the declared parameter order; arguments not
// declared in the schema follow, sorted by name.
func bindParams(declared []teleop.Parameter, args map[string]any) []Param {
	out := make([]Param, 0, len(args))
	seen := make(map[string]bool, len(args))
	for _, p := range declared {
		if v, ok := args[p.Name]; ok {
			out = append(out, Param{Name: p.Name, Value: v})
			seen[p.Name] = true
		}
	}
	extras := make([]string, 0, len(args))
	for name := range args {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		out = append(out, Param{Name: name, Value: args[name]})
	}
	return out
}

func planText(name, reasoning string, params []Param) string {
	var b strings.Builder
	if reasoning != "" {
		b.WriteString(reasoning)
		b.WriteString("\n")
	}
	b.WriteString("Plan: ")
	b.WriteString(name)
	b.WriteString("(")
	b.WriteString(formatParams(params))
	b.WriteString(")")
	return b.String()
}

func formatParams(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s=%v", p.Name, p.Value)
	}
	return strings.Join(parts, ", ")
}
