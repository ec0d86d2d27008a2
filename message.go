package teleop

import "time"

// Message is a sealed interface representing a conversation message.
// The unexported marker method prevents external implementations.
// Role() returns the message's role without requiring a type switch.
type Message interface {
	isMessage()
	Role() Role
}

// SystemMessage carries the system prompt that seeds a turn.
type SystemMessage struct {
	Content string
}

func (SystemMessage) isMessage() {}

// Role returns RoleSystem.
func (SystemMessage) Role() Role { return RoleSystem }

// UserMessage represents a message from the operator.
type UserMessage struct {
	Content   string
	Timestamp time.Time
}

func (UserMessage) isMessage() {}

// Role returns RoleUser.
func (UserMessage) Role() Role { return RoleUser }

// AssistantMessage represents a model response. ToolCalls is non-empty when
// the model proposed tool invocations instead of (or alongside) text.
type AssistantMessage struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
	Timestamp time.Time
}

func (AssistantMessage) isMessage() {}

// Role returns RoleAssistant.
func (AssistantMessage) Role() Role { return RoleAssistant }

// ToolMessage carries the serialized result of one tool call back to the
// model, correlated by ToolCallID.
type ToolMessage struct {
	ToolCallID string
	ToolName   string
	Content    string
	IsError    bool
	Timestamp  time.Time
}

func (ToolMessage) isMessage() {}

// Role returns RoleTool.
func (ToolMessage) Role() Role { return RoleTool }

// Interface compliance checks.
var (
	_ Message = SystemMessage{}
	_ Message = UserMessage{}
	_ Message = AssistantMessage{}
	_ Message = ToolMessage{}
)
