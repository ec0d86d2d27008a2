package gate

import (
	"time"

	"github.com/mwidla/teleop"
)

// Record captures one pass through the gate. Records are append-only and
// never mutated after creation.
type Record struct {
	Time      time.Time         `json:"time"`
	CallID    string            `json:"call_id,omitempty"`
	Function  string            `json:"function"`
	Reasoning string            `json:"reasoning,omitempty"`
	Params    []Param           `json:"params"`
	Approved  bool              `json:"approved"`
	Executed  bool              `json:"executed"`
	Outcome   teleop.ToolResult `json:"outcome"`
}
