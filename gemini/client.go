package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/catalog"
)

// Interface compliance check.
var _ teleop.Completer = (*Client)(nil)

// Client implements [teleop.Completer] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-3.1-pro-preview.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Complete sends one request to the Gemini API and normalizes the response.
func (c *Client) Complete(ctx context.Context, req teleop.Request) (*teleop.Completion, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	contents, systemPrompt := ConvertMessages(req.Messages)
	config := buildConfig(req, systemPrompt)

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return normalize(resp)
}

func buildConfig(req teleop.Request, systemPrompt string) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
		Tools:           ConvertTools(req.Tools),
	}

	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	return config
}

// ConvertMessages converts teleop Messages to genai Contents. System
// messages have no role of their own on this API; their text is collected
// and returned separately for the SystemInstruction field.
// Exported for testing.
func ConvertMessages(msgs []teleop.Message) ([]*genai.Content, string) {
	var result []*genai.Content
	var systemPrompt string
	for _, msg := range msgs {
		switch m := msg.(type) {
		case teleop.SystemMessage:
			systemPrompt = m.Content
		case teleop.UserMessage:
			result = append(result, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Content}},
			})
		case teleop.AssistantMessage:
			result = append(result, &genai.Content{
				Role:  "model",
				Parts: assistantParts(m),
			})
		case teleop.ToolMessage:
			var responseMap map[string]any
			if m.IsError {
				responseMap = map[string]any{"error": m.Content}
			} else {
				responseMap = map[string]any{"output": m.Content}
			}
			result = append(result, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       m.ToolCallID,
						Name:     m.ToolName,
						Response: responseMap,
					},
				}},
			})
		}
	}
	return result, systemPrompt
}

func assistantParts(m teleop.AssistantMessage) []*genai.Part {
	var parts []*genai.Part
	if m.Content != "" {
		parts = append(parts, &genai.Part{Text: m.Content})
	}
	for _, call := range m.ToolCalls {
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   call.ID,
				Name: call.Name,
				Args: call.Arguments,
			},
		})
	}
	return parts
}

// ConvertTools converts teleop tool schemas to genai Tools.
// Exported for testing.
func ConvertTools(schemas []teleop.ToolSchema) []*genai.Tool {
	if len(schemas) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(schemas))
	for i, s := range schemas {
		fn := catalog.FunctionDecl(s)["function"].(map[string]any)
		decls[i] = &genai.FunctionDeclaration{
			Name:                 s.Name,
			Description:          s.Description,
			ParametersJsonSchema: fn["parameters"],
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// normalize converts a genai response into a teleop.Completion. Thought
// parts are dropped: the orchestrator surfaces reasoning through its own
// notification channel, not through message content.
func normalize(resp *genai.GenerateContentResponse) (*teleop.Completion, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: response has no candidates")
	}

	completion := &teleop.Completion{}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.FunctionCall != nil:
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			completion.ToolCalls = append(completion.ToolCalls, teleop.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		case part.Text != "" && !part.Thought:
			completion.Content += part.Text
		}
	}

	if resp.UsageMetadata != nil {
		completion.Usage = teleop.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return completion, nil
}
