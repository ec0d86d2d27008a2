package gemini_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/gemini"
)

func TestConvertMessages_SystemPromptIsLiftedOut(t *testing.T) {
	t.Parallel()
	msgs := []teleop.Message{
		teleop.SystemMessage{Content: "You operate a robot."},
		teleop.UserMessage{Content: "Hello"},
	}
	got, systemPrompt := gemini.ConvertMessages(msgs)
	assert.Equal(t, "You operate a robot.", systemPrompt)
	require.Len(t, got, 1)
	assert.Equal(t, "user", got[0].Role)
	require.Len(t, got[0].Parts, 1)
	assert.Equal(t, "Hello", got[0].Parts[0].Text)
}

func TestConvertMessages_AssistantMessage(t *testing.T) {
	t.Parallel()
	msgs := []teleop.Message{
		teleop.AssistantMessage{Content: "Let me check."},
	}
	got, _ := gemini.ConvertMessages(msgs)
	require.Len(t, got, 1)
	assert.Equal(t, "model", got[0].Role)
	require.Len(t, got[0].Parts, 1)
	assert.Equal(t, "Let me check.", got[0].Parts[0].Text)
}

func TestConvertMessages_ToolCallAndResult(t *testing.T) {
	t.Parallel()
	msgs := []teleop.Message{
		teleop.AssistantMessage{
			Content: "Moving the arm.",
			ToolCalls: []teleop.ToolCall{{
				ID:        "call_1",
				Name:      "arm_move",
				Arguments: map[string]any{"pose": "home"},
			}},
		},
		teleop.ToolMessage{
			ToolCallID: "call_1",
			ToolName:   "arm_move",
			Content:    "arm at home",
		},
	}
	got, _ := gemini.ConvertMessages(msgs)
	require.Len(t, got, 2)

	require.Len(t, got[0].Parts, 2)
	fc := got[0].Parts[1].FunctionCall
	require.NotNil(t, fc)
	assert.Equal(t, "call_1", fc.ID)
	assert.Equal(t, "arm_move", fc.Name)
	assert.Equal(t, map[string]any{"pose": "home"}, fc.Args)

	assert.Equal(t, "user", got[1].Role)
	require.Len(t, got[1].Parts, 1)
	fr := got[1].Parts[0].FunctionResponse
	require.NotNil(t, fr)
	assert.Equal(t, "call_1", fr.ID)
	assert.Equal(t, "arm_move", fr.Name)
	assert.Equal(t, map[string]any{"output": "arm at home"}, fr.Response)
}

func TestConvertMessages_ToolErrorResult(t *testing.T) {
	t.Parallel()
	msgs := []teleop.Message{
		teleop.ToolMessage{
			ToolCallID: "call_2",
			ToolName:   "arm_move",
			Content:    "joint limit exceeded",
			IsError:    true,
		},
	}
	got, _ := gemini.ConvertMessages(msgs)
	require.Len(t, got, 1)
	fr := got[0].Parts[0].FunctionResponse
	require.NotNil(t, fr)
	assert.Equal(t, map[string]any{"error": "joint limit exceeded"}, fr.Response)
}

func TestConvertTools(t *testing.T) {
	t.Parallel()
	schemas := []teleop.ToolSchema{{
		Name:        "arm_move",
		Description: "Move the arm to a named pose.",
		Parameters: []teleop.Parameter{
			{Name: "pose", Type: "string", Description: "Target pose."},
		},
		Required: []string{"pose"},
	}}

	got := gemini.ConvertTools(schemas)
	require.Len(t, got, 1)
	require.Len(t, got[0].FunctionDeclarations, 1)

	decl := got[0].FunctionDeclarations[0]
	assert.Equal(t, "arm_move", decl.Name)
	assert.Equal(t, "Move the arm to a named pose.", decl.Description)

	params, ok := decl.ParametersJsonSchema.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", params["type"])
	assert.Equal(t, []string{"pose"}, params["required"])
}

func TestConvertTools_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, gemini.ConvertTools(nil))
}
