package teleop

import (
	"context"
	"fmt"
)

// Parameter describes one tool parameter. Order within a ToolSchema is
// significant: it is the order parameters are displayed and bound.
type Parameter struct {
	Name        string
	Type        string
	Description string
	Enum        []string
}

// ToolSchema is the schema sent to the model describing a tool's capabilities.
// Name is unique within one catalog.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  []Parameter
	Required    []string
}

// Validate checks the schema's internal invariants: a non-empty name and
// every required parameter present in Parameters.
func (s ToolSchema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("tool schema has no name: %w", ErrValidation)
	}
	for _, req := range s.Required {
		if s.Parameter(req) == nil {
			return fmt.Errorf("tool %s: required parameter %q not declared: %w", s.Name, req, ErrValidation)
		}
	}
	return nil
}

// Parameter returns the named parameter, or nil if not declared.
func (s ToolSchema) Parameter(name string) *Parameter {
	for i := range s.Parameters {
		if s.Parameters[i].Name == name {
			return &s.Parameters[i]
		}
	}
	return nil
}

// Implementation executes one tool call with parsed arguments. It reports
// domain failures through the returned ToolResult rather than panicking;
// the catalog binding recovers panics into failures as a backstop.
type Implementation func(ctx context.Context, args map[string]any) ToolResult

// ToolResult is the tagged outcome of a tool execution: exactly one of
// Value or Err is meaningful. Use Ok and Fail to construct.
type ToolResult struct {
	Value string `json:"value,omitempty"`
	Err   string `json:"error,omitempty"`
}

// Ok returns a successful ToolResult carrying value.
func Ok(value string) ToolResult { return ToolResult{Value: value} }

// Okf returns a successful ToolResult with a formatted value.
func Okf(format string, args ...any) ToolResult {
	return ToolResult{Value: fmt.Sprintf(format, args...)}
}

// Fail returns a failed ToolResult carrying message.
func Fail(message string) ToolResult { return ToolResult{Err: message} }

// Failf returns a failed ToolResult with a formatted message.
func Failf(format string, args ...any) ToolResult {
	return ToolResult{Err: fmt.Sprintf(format, args...)}
}

// OK reports whether the result is a success.
func (r ToolResult) OK() bool { return r.Err == "" }

// ToolCall is a tool invocation proposed by the model. ID correlates the
// call with its ToolMessage for the lifetime of one turn.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}
