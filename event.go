package teleop

// Event is a sealed interface representing a lifecycle notification.
// Events are purely informational: delivery is best-effort and observers
// must never be able to fail or stall a turn.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventThinking carries model reasoning text shown to observers.
type EventThinking struct {
	Text string
}

func (EventThinking) event() {}

// EventFunctionCall announces a proposed tool call before it is executed,
// so observers can display a plan prior to approval.
type EventFunctionCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

func (EventFunctionCall) event() {}

// EventToolResult carries the outcome of one tool call.
type EventToolResult struct {
	ID     string
	Name   string
	Result ToolResult
}

func (EventToolResult) event() {}

// EventError reports a turn-level failure.
type EventError struct {
	Text string
}

func (EventError) event() {}

// EventComplete signals the end of a turn with the final response text.
type EventComplete struct {
	Text string
}

func (EventComplete) event() {}

// Interface compliance checks.
var (
	_ Event = EventThinking{}
	_ Event = EventFunctionCall{}
	_ Event = EventToolResult{}
	_ Event = EventError{}
	_ Event = EventComplete{}
)

// Notifier is a fire-and-forget sink for lifecycle events. Publish must not
// block; implementations drop events rather than stall the caller.
type Notifier interface {
	Publish(Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

// Publish discards the event.
func (NopNotifier) Publish(Event) {}

var _ Notifier = NopNotifier{}
