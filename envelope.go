package teleop

// Mode selects which backend handles a turn.
type Mode string

const (
	// ModeFunctionCalling drives tools through the model's native
	// function-calling interface.
	ModeFunctionCalling Mode = "function_calling"

	// ModeCodeGen asks the model to write a script against the tool API
	// and runs it through a sandbox runner.
	ModeCodeGen Mode = "codegen"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeFunctionCalling || m == ModeCodeGen
}

// ToolCallRecord summarizes one executed tool call for the caller.
type ToolCallRecord struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Result    ToolResult     `json:"result"`
}

// Envelope is the terminal result of one turn. Invariant: at least one of
// Message and Error is non-empty.
type Envelope struct {
	Message   string           `json:"message,omitempty"`
	ToolCalls []ToolCallRecord `json:"tool_calls"`
	Error     string           `json:"error,omitempty"`
	Mode      Mode             `json:"mode,omitempty"`
}
