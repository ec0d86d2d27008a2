package router_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/catalog"
	"github.com/mwidla/teleop/router"
)

// backend is a test double for router.Backend.
type backend struct {
	label  string
	turns  int
	resets int
}

func (b *backend) ProcessMessage(_ context.Context, _ string) *teleop.Envelope {
	b.turns++
	return &teleop.Envelope{Message: b.label}
}

func (b *backend) Reset() { b.resets++ }

func pair() (fc, cg *backend, build router.BuildFunc) {
	fc = &backend{label: "fc"}
	cg = &backend{label: "cg"}
	build = func(_ router.ModelConfig) (router.Backend, router.Backend) {
		return fc, cg
	}
	return fc, cg, build
}

func TestRouter_DispatchByMode(t *testing.T) {
	t.Parallel()

	fc, cg, build := pair()
	r := router.New(build, router.ModelConfig{}, catalog.New())

	env := r.ProcessMessage(context.Background(), "hello")
	assert.Equal(t, "fc", env.Message)
	assert.Equal(t, teleop.ModeFunctionCalling, env.Mode)

	require.NoError(t, r.SetMode(teleop.ModeCodeGen))
	env = r.ProcessMessage(context.Background(), "hello")
	assert.Equal(t, "cg", env.Message)
	assert.Equal(t, teleop.ModeCodeGen, env.Mode)

	assert.Equal(t, 1, fc.turns)
	assert.Equal(t, 1, cg.turns)
}

func TestRouter_SetModeRejectsUnknown(t *testing.T) {
	t.Parallel()

	_, _, build := pair()
	r := router.New(build, router.ModelConfig{}, catalog.New())

	err := r.SetMode(teleop.Mode("telepathy"))
	require.Error(t, err)
	assert.ErrorIs(t, err, teleop.ErrInvalidMode)
	assert.Equal(t, teleop.ModeFunctionCalling, r.Mode())
}

func TestRouter_ModeSwitchDoesNotReset(t *testing.T) {
	t.Parallel()

	fc, cg, build := pair()
	r := router.New(build, router.ModelConfig{}, catalog.New())

	require.NoError(t, r.SetMode(teleop.ModeCodeGen))
	require.NoError(t, r.SetMode(teleop.ModeFunctionCalling))

	assert.Equal(t, 0, fc.resets)
	assert.Equal(t, 0, cg.resets)
}

func TestRouter_ResetConversation(t *testing.T) {
	t.Parallel()

	fc, cg, build := pair()
	r := router.New(build, router.ModelConfig{}, catalog.New())

	r.ResetConversation()

	assert.Equal(t, 1, fc.resets)
	assert.Equal(t, 1, cg.resets)
}

func TestRouter_UpdateModelConfigSwapsBothBackends(t *testing.T) {
	t.Parallel()

	old := &backend{label: "old"}
	fresh := &backend{label: "fresh"}
	gen := 0
	build := func(cfg router.ModelConfig) (router.Backend, router.Backend) {
		gen++
		if gen == 1 {
			return old, old
		}
		return fresh, fresh
	}

	r := router.New(build, router.ModelConfig{Model: "m-1"}, catalog.New())
	r.UpdateModelConfig(router.ModelConfig{Model: "m-2"})

	env := r.ProcessMessage(context.Background(), "hello")
	assert.Equal(t, "fresh", env.Message)
	assert.Equal(t, 0, old.turns, "old backends must not be used after reconfiguration")
}

func TestRouter_AvailableTools(t *testing.T) {
	t.Parallel()

	cat := catalog.New()
	_, _, build := pair()
	r := router.New(build, router.ModelConfig{}, cat)

	assert.Empty(t, r.AvailableTools())
}
