// Package openai implements [teleop.Completer] for OpenAI-compatible chat
// completions APIs. It speaks the non-streaming endpoint: one request, one
// normalized completion back.
package openai

import "encoding/json"

const (
	defaultBaseURL   = "https://api.openai.com"
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 4096
	completionsPath  = "/v1/chat/completions"
)

// apiRequest is the JSON body sent to the chat completions endpoint.
type apiRequest struct {
	Model       string           `json:"model"`
	Messages    []apiMessage     `json:"messages"`
	Tools       []map[string]any `json:"tools,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type apiMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type apiToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Function apiFunction `json:"function"`
}

// apiFunction carries the function name and its arguments as a JSON-encoded
// string, per the wire contract.
type apiFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// apiResponse is the JSON body received from the endpoint.
type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message apiMessage `json:"message"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// apiError is the error body returned on non-200 responses.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e apiError) empty() bool {
	return e.Error.Type == "" && e.Error.Message == ""
}

// rawArguments parses a tool call's JSON-encoded argument string into a map.
func rawArguments(s string) (map[string]any, error) {
	if s == "" {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
