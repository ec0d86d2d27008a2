// Package gemini implements [teleop.Completer] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK, translating between teleop's
// domain types and the Gemini API types. The orchestrator works turn by
// turn, so the client uses the non-streaming GenerateContent call: one
// request, one normalized completion back.
package gemini

const (
	defaultModel     = "gemini-3.1-pro-preview"
	defaultMaxTokens = 65536
)
