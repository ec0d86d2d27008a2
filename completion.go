package teleop

import "context"

// Completer is a strategy pattern interface for LLM completion backends.
// Complete performs one non-streaming model call. Transport and protocol
// failures come from the error return; tool calls proposed by the model
// arrive with their JSON argument strings already parsed.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// Request carries model selection and generation parameters for one
// completion call. The completer uses its own defaults for zero/nil fields.
// An empty Tools slice means the model is not offered tools on this call.
type Request struct {
	Model       string // model ID, backend-specific; empty = backend default
	Messages    []Message
	Tools       []ToolSchema
	MaxTokens   int      // 0 = backend default
	Temperature *float64 // nil = backend default
}

// Completion is the normalized model response.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// Usage tracks token consumption for one completion call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
