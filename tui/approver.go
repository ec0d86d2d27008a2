package tui

import (
	"context"

	"github.com/mwidla/teleop/gate"
)

// Interface compliance check.
var _ gate.Approver = (*Approver)(nil)

// Approver bridges the approval gate to the console. The gate calls
// Approve from the turn goroutine; the request is handed to the Bubble Tea
// model, which answers it from the operator's keypress. Approve blocks
// until that answer or until ctx is done.
type Approver struct {
	requests chan ApprovalRequest
}

// ApprovalRequest is one pending decision.
type ApprovalRequest struct {
	Plan  gate.Plan
	reply chan bool
}

// Approve resolves the request positively.
func (r ApprovalRequest) Approve() { r.reply <- true }

// Reject resolves the request negatively.
func (r ApprovalRequest) Reject() { r.reply <- false }

// NewApprover creates an Approver.
func NewApprover() *Approver {
	return &Approver{requests: make(chan ApprovalRequest)}
}

// Requests exposes pending requests to the model's listen command.
func (a *Approver) Requests() <-chan ApprovalRequest {
	return a.requests
}

// Approve implements gate.Approver.
func (a *Approver) Approve(ctx context.Context, plan gate.Plan) (bool, error) {
	req := ApprovalRequest{Plan: plan, reply: make(chan bool, 1)}
	select {
	case a.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case approved := <-req.reply:
		return approved, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
