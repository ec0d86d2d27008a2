package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/catalog"
)

// Interface compliance check.
var _ teleop.Completer = (*Client)(nil)

// Client implements [teleop.Completer] for OpenAI-compatible chat
// completions APIs.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest and
// for OpenAI-compatible gateways.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithModel sets the default model ID.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a new [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Complete sends one chat completion request and normalizes the response.
// Tool call arguments arrive as JSON-encoded strings and are parsed here,
// before dispatch.
func (c *Client) Complete(ctx context.Context, req teleop.Request) (*teleop.Completion, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response has no choices")
	}

	return normalize(apiResp)
}

func (c *Client) buildRequest(req teleop.Request) apiRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return apiRequest{
		Model:       model,
		Messages:    convertMessages(req.Messages),
		Tools:       convertTools(req.Tools),
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}
}

func convertMessages(msgs []teleop.Message) []apiMessage {
	result := make([]apiMessage, 0, len(msgs))
	for _, msg := range msgs {
		switch m := msg.(type) {
		case teleop.SystemMessage:
			result = append(result, apiMessage{Role: "system", Content: m.Content})
		case teleop.UserMessage:
			result = append(result, apiMessage{Role: "user", Content: m.Content})
		case teleop.AssistantMessage:
			result = append(result, apiMessage{
				Role:      "assistant",
				Content:   m.Content,
				ToolCalls: convertToolCalls(m.ToolCalls),
			})
		case teleop.ToolMessage:
			result = append(result, apiMessage{
				Role:       "tool",
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
			})
		}
	}
	return result
}

func convertToolCalls(calls []teleop.ToolCall) []apiToolCall {
	if len(calls) == 0 {
		return nil
	}
	result := make([]apiToolCall, len(calls))
	for i, call := range calls {
		args, err := json.Marshal(call.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		result[i] = apiToolCall{
			ID:   call.ID,
			Type: "function",
			Function: apiFunction{
				Name:      call.Name,
				Arguments: string(args),
			},
		}
	}
	return result
}

func convertTools(schemas []teleop.ToolSchema) []map[string]any {
	if len(schemas) == 0 {
		return nil
	}
	result := make([]map[string]any, len(schemas))
	for i, s := range schemas {
		result[i] = catalog.FunctionDecl(s)
	}
	return result
}

// normalize converts the API response to a teleop.Completion, parsing each
// tool call's argument string. A call with unparseable arguments fails the
// whole completion: the orchestrator cannot dispatch what it cannot parse.
func normalize(resp apiResponse) (*teleop.Completion, error) {
	msg := resp.Choices[0].Message
	completion := &teleop.Completion{
		Content: msg.Content,
		Usage: teleop.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range msg.ToolCalls {
		args, err := rawArguments(tc.Function.Arguments)
		if err != nil {
			return nil, fmt.Errorf("openai: tool call %s arguments: %w", tc.ID, err)
		}
		completion.ToolCalls = append(completion.ToolCalls, teleop.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return completion, nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("openai: HTTP %d", resp.StatusCode)
	}
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.empty() {
		return fmt.Errorf("openai: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return fmt.Errorf("openai: HTTP %d: %s: %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
}
