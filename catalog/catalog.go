// Package catalog maintains the session's tool registry: it discovers
// capability providers, normalizes their schemas, and binds implementations
// behind a panic-recovery boundary.
package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mwidla/teleop"
)

// Provider is an external source of related tools, e.g. one robot subsystem.
// Tools enumerates the provider's tool definitions without side effects.
type Provider interface {
	Name() string
	Tools() ([]Tool, error)
}

// Tool bundles a schema with its implementation. Mock, when non-nil, is an
// alternative implementation the approval gate can substitute for the real
// one in mock mode.
type Tool struct {
	Schema teleop.ToolSchema
	Impl   teleop.Implementation
	Mock   teleop.Implementation
}

// Catalog maps tool names to their schemas and implementations. It is a
// session-scoped value: construct one per orchestrator session and pass it
// by reference to whichever component needs it.
type Catalog struct {
	logger *zap.Logger

	mu         sync.RWMutex
	order      []string
	entries    map[string]Tool
	byProvider map[string][]string
}

// Option configures a [Catalog].
type Option func(*Catalog)

// WithLogger sets the logger used to report skipped providers and
// overwritten entries. Default is zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// New creates an empty Catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		logger:     zap.NewNop(),
		entries:    make(map[string]Tool),
		byProvider: make(map[string][]string),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Discover enumerates provider descriptors without registering anything.
// Providers that fail enumeration are reported with a zero tool count.
func (c *Catalog) Discover(providers ...Provider) []Descriptor {
	out := make([]Descriptor, 0, len(providers))
	for _, p := range providers {
		d := Descriptor{Name: p.Name()}
		tools, err := p.Tools()
		if err != nil {
			d.Err = err
		} else {
			d.ToolCount = len(tools)
		}
		out = append(out, d)
	}
	return out
}

// Descriptor summarizes one provider found during discovery.
type Descriptor struct {
	Name      string
	ToolCount int
	Err       error
}

// Register adds every tool from each provider and returns the number of
// tools registered. Registration is idempotent per provider: re-registering
// a provider replaces its previous entries. A provider whose enumeration
// fails is logged and skipped; it does not abort the remaining providers.
// Duplicate tool names across providers overwrite the earlier entry.
func (c *Catalog) Register(providers ...Provider) int {
	registered := 0
	for _, p := range providers {
		tools, err := p.Tools()
		if err != nil {
			c.logger.Warn("skipping provider", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}

		c.mu.Lock()
		c.dropProviderLocked(p.Name())
		names := make([]string, 0, len(tools))
		for _, t := range tools {
			if err := t.Schema.Validate(); err != nil {
				c.logger.Warn("skipping tool with invalid schema",
					zap.String("provider", p.Name()),
					zap.String("tool", t.Schema.Name),
					zap.Error(err))
				continue
			}
			name := t.Schema.Name
			if _, exists := c.entries[name]; exists {
				c.logger.Info("overwriting tool registration", zap.String("tool", name))
			} else {
				c.order = append(c.order, name)
			}
			t.Impl = safe(t.Impl)
			if t.Mock != nil {
				t.Mock = safe(t.Mock)
			}
			c.entries[name] = t
			names = append(names, name)
			registered++
		}
		c.byProvider[p.Name()] = names
		c.mu.Unlock()
	}
	return registered
}

// dropProviderLocked removes all tools previously registered by provider.
func (c *Catalog) dropProviderLocked(provider string) {
	for _, name := range c.byProvider[provider] {
		if _, ok := c.entries[name]; !ok {
			continue
		}
		delete(c.entries, name)
		for i, n := range c.order {
			if n == name {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
	delete(c.byProvider, provider)
}

// Schemas returns all registered schemas in registration order.
func (c *Catalog) Schemas() []teleop.ToolSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]teleop.ToolSchema, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entries[name].Schema)
	}
	return out
}

// Implementations returns a name-keyed copy of the registered callables.
func (c *Catalog) Implementations() map[string]teleop.Implementation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]teleop.Implementation, len(c.entries))
	for name, t := range c.entries {
		out[name] = t.Impl
	}
	return out
}

// Lookup returns the tool registered under name.
func (c *Catalog) Lookup(name string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[name]
	return t, ok
}

// Names returns registered tool names in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of registered tools.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// safe wraps impl so a panic inside the tool body surfaces as a failure
// result instead of unwinding through the turn loop.
func safe(impl teleop.Implementation) teleop.Implementation {
	return func(ctx context.Context, args map[string]any) (res teleop.ToolResult) {
		defer func() {
			if r := recover(); r != nil {
				res = teleop.Failf("tool panicked: %v", r)
			}
		}()
		return impl(ctx, args)
	}
}
