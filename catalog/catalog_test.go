package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/catalog"
)

// fakeProvider is a catalog.Provider backed by a fixed tool list.
type fakeProvider struct {
	name  string
	tools []catalog.Tool
	err   error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Tools() ([]catalog.Tool, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.tools, nil
}

func tool(name string) catalog.Tool {
	return catalog.Tool{
		Schema: teleop.ToolSchema{Name: name, Description: name + " tool"},
		Impl: func(_ context.Context, _ map[string]any) teleop.ToolResult {
			return teleop.Ok("ran " + name)
		},
	}
}

func TestCatalog_Register(t *testing.T) {
	t.Parallel()

	t.Run("registers all tools from all providers", func(t *testing.T) {
		t.Parallel()

		c := catalog.New()
		n := c.Register(
			&fakeProvider{name: "arm", tools: []catalog.Tool{tool("arm_home"), tool("arm_move")}},
			&fakeProvider{name: "base", tools: []catalog.Tool{tool("base_drive")}},
		)

		assert.Equal(t, 3, n)
		assert.Equal(t, []string{"arm_home", "arm_move", "base_drive"}, c.Names())
	})

	t.Run("failing provider is skipped, not fatal", func(t *testing.T) {
		t.Parallel()

		c := catalog.New()
		n := c.Register(
			&fakeProvider{name: "broken", err: errors.New("introspection failed")},
			&fakeProvider{name: "base", tools: []catalog.Tool{tool("base_drive")}},
		)

		assert.Equal(t, 1, n)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("re-registering a provider overwrites its entries", func(t *testing.T) {
		t.Parallel()

		c := catalog.New()
		c.Register(&fakeProvider{name: "arm", tools: []catalog.Tool{tool("arm_home"), tool("arm_move")}})
		c.Register(&fakeProvider{name: "arm", tools: []catalog.Tool{tool("arm_home")}})

		assert.Equal(t, []string{"arm_home"}, c.Names())
	})

	t.Run("duplicate name overwrites rather than duplicates", func(t *testing.T) {
		t.Parallel()

		dup := tool("shared")
		dup.Impl = func(_ context.Context, _ map[string]any) teleop.ToolResult {
			return teleop.Ok("second")
		}

		c := catalog.New()
		c.Register(&fakeProvider{name: "a", tools: []catalog.Tool{tool("shared")}})
		c.Register(&fakeProvider{name: "b", tools: []catalog.Tool{dup}})

		require.Equal(t, 1, c.Len())
		got, ok := c.Lookup("shared")
		require.True(t, ok)
		assert.Equal(t, "second", got.Impl(context.Background(), nil).Value)
	})

	t.Run("invalid schema is skipped", func(t *testing.T) {
		t.Parallel()

		bad := catalog.Tool{
			Schema: teleop.ToolSchema{
				Name:     "bad",
				Required: []string{"missing"},
			},
			Impl: func(_ context.Context, _ map[string]any) teleop.ToolResult { return teleop.Ok("") },
		}

		c := catalog.New()
		n := c.Register(&fakeProvider{name: "p", tools: []catalog.Tool{bad, tool("good")}})

		assert.Equal(t, 1, n)
		_, ok := c.Lookup("bad")
		assert.False(t, ok)
	})

	t.Run("panicking implementation becomes a failure result", func(t *testing.T) {
		t.Parallel()

		boom := catalog.Tool{
			Schema: teleop.ToolSchema{Name: "boom"},
			Impl: func(_ context.Context, _ map[string]any) teleop.ToolResult {
				panic("wires crossed")
			},
		}

		c := catalog.New()
		c.Register(&fakeProvider{name: "p", tools: []catalog.Tool{boom}})

		got, ok := c.Lookup("boom")
		require.True(t, ok)
		res := got.Impl(context.Background(), nil)
		assert.False(t, res.OK())
		assert.Contains(t, res.Err, "wires crossed")
	})
}

func TestCatalog_Discover(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	descs := c.Discover(
		&fakeProvider{name: "arm", tools: []catalog.Tool{tool("arm_home")}},
		&fakeProvider{name: "broken", err: errors.New("no docs")},
	)

	require.Len(t, descs, 2)
	assert.Equal(t, "arm", descs[0].Name)
	assert.Equal(t, 1, descs[0].ToolCount)
	assert.Error(t, descs[1].Err)

	// Discovery has no side effects.
	assert.Equal(t, 0, c.Len())
}

func TestCatalog_Implementations(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	c.Register(&fakeProvider{name: "arm", tools: []catalog.Tool{tool("arm_home")}})

	impls := c.Implementations()
	require.Contains(t, impls, "arm_home")
	assert.Equal(t, "ran arm_home", impls["arm_home"](context.Background(), nil).Value)
}
