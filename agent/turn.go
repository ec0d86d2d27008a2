package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/sandbox"
)

// state identifies a node of the turn state machine.
type state int

const (
	stateParseInput state = iota
	stateCallModel
	stateExecuteTools
	stateGenerateResponse
	stateTerminated
)

// turnState is the state machine's working memory for one turn. It is
// created at turn start and discarded at termination.
type turnState struct {
	messages   []teleop.Message
	pending    []teleop.ToolCall
	results    []teleop.ToolCallRecord
	seenIDs    map[string]bool
	err        string
	final      string
	modelCalls int
	responded  bool // GenerateResponse already ran; guards the error path
}

// ProcessMessage runs one full turn: ParseInput through Terminated. The
// returned envelope always carries a message or an error, never neither.
func (m *Machine) ProcessMessage(ctx context.Context, text string) *teleop.Envelope {
	st := &turnState{
		messages: []teleop.Message{
			teleop.SystemMessage{Content: m.systemPrompt},
			teleop.UserMessage{Content: text, Timestamp: time.Now()},
		},
		seenIDs: make(map[string]bool),
	}

	for s := stateParseInput; s != stateTerminated; s = m.next(st) {
		switch s {
		case stateParseInput:
			m.parseInput(st)
		case stateCallModel:
			m.callModel(ctx, st)
		case stateExecuteTools:
			m.executeTools(ctx, st)
		case stateGenerateResponse:
			m.generateResponse(ctx, st)
		}
	}

	return m.terminate(st)
}

// next is the central transition rule. The ordering is a priority list, not
// independent branches: a set error always wins over populated results.
func (m *Machine) next(st *turnState) state {
	switch {
	case st.final != "":
		return stateTerminated
	case st.err != "":
		if st.responded {
			return stateTerminated
		}
		return stateGenerateResponse
	case len(st.pending) > 0:
		return stateExecuteTools
	case len(st.results) > 0:
		return stateGenerateResponse
	case lastIsAssistantWithoutCalls(st.messages):
		return stateTerminated
	default:
		return stateCallModel
	}
}

// parseInput validates the turn's opening messages. A mismatch sets the
// error rather than dropping the turn, so the operator still gets an
// answer describing the problem.
func (m *Machine) parseInput(st *turnState) {
	last := st.messages[len(st.messages)-1]
	um, ok := last.(teleop.UserMessage)
	if !ok {
		st.err = "last message is not a user message"
		return
	}
	if strings.TrimSpace(um.Content) == "" {
		st.err = "empty user message"
	}
}

// callModel queries the completion backend with the full tool list, except
// for recognized meta-queries, which are answered from the catalog without
// a model call.
func (m *Machine) callModel(ctx context.Context, st *turnState) {
	if text, ok := lastUserText(st.messages); ok && isToolListQuery(text) {
		st.final = m.describeTools()
		return
	}

	st.modelCalls++
	if st.modelCalls > m.maxModelCalls {
		st.err = fmt.Sprintf("model call budget exhausted after %d calls", m.maxModelCalls)
		return
	}

	completion, err := m.completer.Complete(ctx, teleop.Request{
		Model:       m.model,
		Messages:    st.messages,
		Tools:       m.catalog.Schemas(),
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	})
	if err != nil {
		st.err = fmt.Sprintf("model call failed: %s", err)
		return
	}

	st.messages = append(st.messages, teleop.AssistantMessage{
		Content:   completion.Content,
		ToolCalls: completion.ToolCalls,
		Usage:     completion.Usage,
		Timestamp: time.Now(),
	})

	if len(completion.ToolCalls) == 0 {
		st.final = completion.Content
		if st.final == "" {
			st.err = "model returned an empty response"
		}
		return
	}

	if completion.Content != "" {
		m.notifier.Publish(teleop.EventThinking{Text: completion.Content})
	}

	for _, call := range completion.ToolCalls {
		if st.seenIDs[call.ID] {
			st.err = fmt.Sprintf("duplicate tool call id %q in one turn", call.ID)
			return
		}
		st.seenIDs[call.ID] = true
		m.notifier.Publish(teleop.EventFunctionCall{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
		})
	}
	st.pending = append(st.pending, completion.ToolCalls...)
}

// executeTools runs every pending call sequentially, in the order the
// model proposed it. Every call gets exactly one ToolMessage, missing
// tools and failures included, so the model always sees a 1:1 response.
func (m *Machine) executeTools(ctx context.Context, st *turnState) {
	reasoning := lastAssistantText(st.messages)

	for _, call := range st.pending {
		var res teleop.ToolResult
		if _, ok := m.catalog.Lookup(call.Name); !ok {
			// Nothing to execute, so the gate is bypassed.
			res = teleop.Failf("Tool %s not found", call.Name)
		} else {
			res = m.gate.Execute(ctx, call.ID, call.Name, reasoning, call.Arguments)
		}

		st.messages = append(st.messages, teleop.ToolMessage{
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Content:    marshalResult(truncateResult(res)),
			IsError:    !res.OK(),
			Timestamp:  time.Now(),
		})
		st.results = append(st.results, teleop.ToolCallRecord{
			Name:      call.Name,
			Arguments: call.Arguments,
			Result:    res,
		})
	}
	st.pending = nil
}

// generateResponse asks the model for closing text over the full history,
// offering no tools this time.
func (m *Machine) generateResponse(ctx context.Context, st *turnState) {
	st.responded = true

	st.modelCalls++
	if st.modelCalls > m.maxModelCalls {
		if st.err == "" {
			st.err = fmt.Sprintf("model call budget exhausted after %d calls", m.maxModelCalls)
		}
		return
	}

	completion, err := m.completer.Complete(ctx, teleop.Request{
		Model:       m.model,
		Messages:    st.messages,
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	})
	if err != nil {
		if st.err == "" {
			st.err = fmt.Sprintf("model call failed: %s", err)
		}
		return
	}

	st.final = completion.Content
	if st.final == "" && st.err == "" {
		st.err = "model returned an empty response"
	}
}

// terminate builds the envelope and emits the closing event.
func (m *Machine) terminate(st *turnState) *teleop.Envelope {
	if st.err != "" {
		m.notifier.Publish(teleop.EventError{Text: st.err})
		m.logger.Warn("turn finished with error", zap.String("error", st.err))
	}
	if st.final != "" {
		m.notifier.Publish(teleop.EventComplete{Text: st.final})
	}
	records := st.results
	if records == nil {
		records = []teleop.ToolCallRecord{}
	}
	return &teleop.Envelope{
		Message:   st.final,
		ToolCalls: records,
		Error:     st.err,
	}
}

// describeTools synthesizes the meta-query answer from the catalog.
func (m *Machine) describeTools() string {
	schemas := m.catalog.Schemas()
	if len(schemas) == 0 {
		return "No tools are currently available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "I have %d tools available:\n", len(schemas))
	for _, s := range schemas {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// isToolListQuery recognizes trivial catalog introspection requests that
// need no model call.
func isToolListQuery(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range []string{
		"list your tools",
		"list tools",
		"what tools are available",
		"what tools do you have",
		"available tools",
	} {
		if strings.Contains(t, phrase) {
			return true
		}
	}
	return false
}

// wireResult is the serialized tool outcome sent back to the model.
type wireResult struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// truncateResult tail-truncates oversized tool output so one chatty tool
// cannot blow up the next completion request.
func truncateResult(res teleop.ToolResult) teleop.ToolResult {
	out, stats := sandbox.TruncateTail(res.Value, maxResultLines, maxResultBytes)
	if stats.Truncated {
		res.Value = out + fmt.Sprintf("\n[showing last %d of %d lines]", stats.KeptLines, stats.TotalLines)
	}
	return res
}

func marshalResult(res teleop.ToolResult) string {
	wr := wireResult{Success: res.OK(), Result: res.Value, Error: res.Err}
	data, err := json.Marshal(wr)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(data)
}

func lastUserText(msgs []teleop.Message) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if um, ok := msgs[i].(teleop.UserMessage); ok {
			return um.Content, true
		}
	}
	return "", false
}

func lastAssistantText(msgs []teleop.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if am, ok := msgs[i].(teleop.AssistantMessage); ok {
			return am.Content
		}
	}
	return ""
}

func lastIsAssistantWithoutCalls(msgs []teleop.Message) bool {
	if len(msgs) == 0 {
		return false
	}
	am, ok := msgs[len(msgs)-1].(teleop.AssistantMessage)
	return ok && len(am.ToolCalls) == 0
}
