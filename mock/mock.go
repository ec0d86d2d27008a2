// Package mock provides test doubles for teleop interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/codegen"
	"github.com/mwidla/teleop/gate"
)

// Interface compliance checks.
var (
	_ teleop.Completer = (*Completer)(nil)
	_ teleop.Notifier  = (*Notifier)(nil)
	_ gate.Approver    = (*Approver)(nil)
	_ codegen.Runner   = (*Runner)(nil)
)

// Completer is a test double for teleop.Completer.
// Set CompleteFn before calling Complete.
type Completer struct {
	CompleteFn func(ctx context.Context, req teleop.Request) (*teleop.Completion, error)
}

// Complete delegates to CompleteFn.
func (c *Completer) Complete(ctx context.Context, req teleop.Request) (*teleop.Completion, error) {
	return c.CompleteFn(ctx, req)
}

// Notifier is a test double for teleop.Notifier. It records published
// events in order. The zero value is ready to use.
type Notifier struct {
	Events []teleop.Event
}

// Publish appends the event.
func (n *Notifier) Publish(ev teleop.Event) {
	n.Events = append(n.Events, ev)
}

// Approver is a test double for gate.Approver. It records every plan it
// is asked about and delegates the decision to ApproveFn.
type Approver struct {
	ApproveFn func(ctx context.Context, plan gate.Plan) (bool, error)
	Plans     []gate.Plan
}

// Approve records the plan and delegates to ApproveFn.
func (a *Approver) Approve(ctx context.Context, plan gate.Plan) (bool, error) {
	a.Plans = append(a.Plans, plan)
	return a.ApproveFn(ctx, plan)
}

// Runner is a test double for codegen.Runner.
// Set RunFn before calling Run.
type Runner struct {
	RunFn func(ctx context.Context, code string) (string, error)
}

// Run delegates to RunFn.
func (r *Runner) Run(ctx context.Context, code string) (string, error) {
	return r.RunFn(ctx, code)
}

// Scripted returns a Completer that replays the given completions in order,
// one per Complete call, failing over to the last entry when exhausted.
func Scripted(completions ...*teleop.Completion) *Completer {
	i := 0
	return &Completer{
		CompleteFn: func(_ context.Context, _ teleop.Request) (*teleop.Completion, error) {
			c := completions[i]
			if i < len(completions)-1 {
				i++
			}
			return c, nil
		},
	}
}
