package codegen_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/catalog"
	"github.com/mwidla/teleop/codegen"
	"github.com/mwidla/teleop/gate"
	"github.com/mwidla/teleop/mock"
)

// runner is a test double for codegen.Runner.
type runner struct {
	RunFn func(ctx context.Context, code string) (string, error)
	calls int
	last  string
}

func (r *runner) Run(ctx context.Context, code string) (string, error) {
	r.calls++
	r.last = code
	return r.RunFn(ctx, code)
}

type toolProvider struct{}

func (toolProvider) Name() string { return "arm" }

func (toolProvider) Tools() ([]catalog.Tool, error) {
	return []catalog.Tool{{
		Schema: teleop.ToolSchema{
			Name:        "arm_move",
			Description: "Move the arm to a named pose.",
			Parameters:  []teleop.Parameter{{Name: "pose", Type: "string"}},
			Required:    []string{"pose"},
		},
		Impl: func(_ context.Context, _ map[string]any) teleop.ToolResult {
			return teleop.Ok("moved")
		},
	}}, nil
}

func newMachine(t *testing.T, completer teleop.Completer, r codegen.Runner, gateOpts ...gate.Option) *codegen.Machine {
	t.Helper()
	cat := catalog.New()
	cat.Register(toolProvider{})
	g := gate.New(gateOpts...)
	return codegen.New(completer, cat, g, r)
}

func scriptResponse(code string) *teleop.Completion {
	return &teleop.Completion{Content: "Moving the arm.\n```python\n" + code + "\n```"}
}

func TestMachine_GeneratesAndRunsScript(t *testing.T) {
	t.Parallel()

	var sawAPIDoc bool
	first := true
	completer := &mock.Completer{
		CompleteFn: func(_ context.Context, req teleop.Request) (*teleop.Completion, error) {
			if first {
				first = false
				sys, ok := req.Messages[0].(teleop.SystemMessage)
				require.True(t, ok)
				sawAPIDoc = strings.Contains(sys.Content, "arm_move(pose)")
				return scriptResponse(`arm_move(pose="home")`), nil
			}
			return &teleop.Completion{Content: "The arm is home."}, nil
		},
	}
	r := &runner{RunFn: func(_ context.Context, _ string) (string, error) {
		return "ok", nil
	}}

	m := newMachine(t, completer, r, gate.WithAutoApprove(true))
	env := m.ProcessMessage(context.Background(), "move the arm home")

	assert.True(t, sawAPIDoc, "generation prompt must document the shared catalog")
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, `arm_move(pose="home")`, r.last)
	assert.Equal(t, "The arm is home.", env.Message)
	require.Len(t, env.ToolCalls, 1)
	assert.Equal(t, codegen.ScriptFunction, env.ToolCalls[0].Name)
	assert.True(t, env.ToolCalls[0].Result.OK())
}

func TestMachine_PlainTextAnswerSkipsRunner(t *testing.T) {
	t.Parallel()

	completer := mock.Scripted(&teleop.Completion{Content: "Nothing to do, the arm is already home."})
	r := &runner{RunFn: func(_ context.Context, _ string) (string, error) {
		return "", errors.New("should not run")
	}}

	m := newMachine(t, completer, r, gate.WithAutoApprove(true))
	env := m.ProcessMessage(context.Background(), "is the arm home?")

	assert.Equal(t, 0, r.calls)
	assert.Equal(t, "Nothing to do, the arm is already home.", env.Message)
	assert.Empty(t, env.ToolCalls)
}

func TestMachine_RejectedScriptNeverRuns(t *testing.T) {
	t.Parallel()

	completer := mock.Scripted(
		scriptResponse(`arm_move(pose="home")`),
		&teleop.Completion{Content: "The operator declined the script."},
	)
	r := &runner{RunFn: func(_ context.Context, _ string) (string, error) {
		return "ran", nil
	}}

	deny := gate.ApproverFunc(func(_ context.Context, _ gate.Plan) (bool, error) {
		return false, nil
	})
	m := newMachine(t, completer, r, gate.WithApprover(deny))
	env := m.ProcessMessage(context.Background(), "move the arm home")

	assert.Equal(t, 0, r.calls)
	require.Len(t, env.ToolCalls, 1)
	assert.Equal(t, "rejected by user", env.ToolCalls[0].Result.Err)
	assert.NotEmpty(t, env.Message)
}

func TestMachine_RunnerFailureIsReported(t *testing.T) {
	t.Parallel()

	completer := mock.Scripted(
		scriptResponse(`arm_move(pose="nowhere")`),
		&teleop.Completion{Content: "The script failed: unknown pose."},
	)
	r := &runner{RunFn: func(_ context.Context, _ string) (string, error) {
		return "", errors.New("unknown pose")
	}}

	m := newMachine(t, completer, r, gate.WithAutoApprove(true))
	env := m.ProcessMessage(context.Background(), "move the arm nowhere")

	require.Len(t, env.ToolCalls, 1)
	assert.False(t, env.ToolCalls[0].Result.OK())
	assert.Contains(t, env.ToolCalls[0].Result.Err, "unknown pose")
	assert.NotEmpty(t, env.Message)
}

func TestMachine_TransportFailure(t *testing.T) {
	t.Parallel()

	completer := &mock.Completer{
		CompleteFn: func(_ context.Context, _ teleop.Request) (*teleop.Completion, error) {
			return nil, errors.New("connection reset")
		},
	}
	r := &runner{RunFn: func(_ context.Context, _ string) (string, error) {
		return "", nil
	}}

	m := newMachine(t, completer, r)
	env := m.ProcessMessage(context.Background(), "move the arm")

	assert.Contains(t, env.Error, "model call failed")
	assert.Empty(t, env.Message)
}

func TestMachine_SummaryFallsBackToRawOutput(t *testing.T) {
	t.Parallel()

	first := true
	completer := &mock.Completer{
		CompleteFn: func(_ context.Context, _ teleop.Request) (*teleop.Completion, error) {
			if first {
				first = false
				return scriptResponse(`arm_move(pose="home")`), nil
			}
			return nil, errors.New("summary backend down")
		},
	}
	r := &runner{RunFn: func(_ context.Context, _ string) (string, error) {
		return "arm at home", nil
	}}

	m := newMachine(t, completer, r, gate.WithAutoApprove(true))
	env := m.ProcessMessage(context.Background(), "move the arm home")

	assert.Contains(t, env.Message, "arm at home")
	assert.Empty(t, env.Error)
}
