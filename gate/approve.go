package gate

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mwidla/teleop"
)

// Plan describes a proposed invocation shown to the approver.
type Plan struct {
	CallID    string
	Function  string
	Reasoning string
	Params    []Param
}

// Param is one display-ready bound parameter.
type Param struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Approver decides whether a planned call may run. Approve is the single
// deliberate suspension point in the pipeline: implementations block until
// the operator answers or ctx is done. A ctx error must be returned, not
// swallowed, so the turn can report the timeout.
type Approver interface {
	Approve(ctx context.Context, plan Plan) (bool, error)
}

// ApproverFunc adapts a function to the Approver interface.
type ApproverFunc func(ctx context.Context, plan Plan) (bool, error)

// Approve calls f.
func (f ApproverFunc) Approve(ctx context.Context, plan Plan) (bool, error) {
	return f(ctx, plan)
}

// Allowlist matches function names against glob patterns. The zero value
// matches nothing.
type Allowlist struct {
	patterns []string
}

// NewAllowlist validates each pattern and returns the allowlist.
func NewAllowlist(patterns ...string) (Allowlist, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return Allowlist{}, fmt.Errorf("bad allowlist pattern %q: %w", p, teleop.ErrValidation)
		}
	}
	return Allowlist{patterns: patterns}, nil
}

// Match reports whether name matches any pattern.
func (a Allowlist) Match(name string) bool {
	for _, p := range a.patterns {
		ok, err := doublestar.Match(p, name)
		if err == nil && ok {
			return true
		}
	}
	return false
}
