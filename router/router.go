// Package router dispatches operator messages to whichever conversation
// backend is currently selected, normalizing both to one envelope shape.
package router

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mwidla/teleop"
	"github.com/mwidla/teleop/catalog"
)

// Backend is one conversation engine: the function-calling state machine or
// the code-generation machine. Both consume the same tool catalog.
type Backend interface {
	ProcessMessage(ctx context.Context, text string) *teleop.Envelope
	Reset()
}

// ModelConfig carries the model parameters both backends are built with.
type ModelConfig struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

// BuildFunc constructs a fresh pair of backends against the given model
// parameters. The router calls it at construction and again on every
// reconfiguration, re-sharing the catalog each time.
type BuildFunc func(cfg ModelConfig) (functionCalling, codeGen Backend)

// Router holds the two backends and the currently selected mode.
type Router struct {
	logger  *zap.Logger
	build   BuildFunc
	catalog *catalog.Catalog

	mu   sync.Mutex
	mode teleop.Mode
	fc   Backend
	cg   Backend
	cfg  ModelConfig
}

// Option configures a [Router].
type Option func(*Router)

// WithLogger sets the logger. Default is zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithMode sets the initial mode. Default is function calling.
func WithMode(mode teleop.Mode) Option {
	return func(r *Router) {
		if mode.Valid() {
			r.mode = mode
		}
	}
}

// New creates a Router, building both backends once with cfg.
func New(build BuildFunc, cfg ModelConfig, cat *catalog.Catalog, opts ...Option) *Router {
	r := &Router{
		logger:  zap.NewNop(),
		build:   build,
		catalog: cat,
		mode:    teleop.ModeFunctionCalling,
		cfg:     cfg,
	}
	for _, o := range opts {
		o(r)
	}
	r.fc, r.cg = build(cfg)
	return r
}

// SetMode selects the active backend. Unknown modes fail with
// teleop.ErrInvalidMode. Switching does not reset either backend's state.
func (r *Router) SetMode(mode teleop.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%q: %w", mode, teleop.ErrInvalidMode)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
	r.logger.Info("mode selected", zap.String("mode", string(mode)))
	return nil
}

// Mode returns the currently selected mode.
func (r *Router) Mode() teleop.Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// ProcessMessage dispatches to the active backend and stamps the envelope
// with the mode that produced it.
func (r *Router) ProcessMessage(ctx context.Context, text string) *teleop.Envelope {
	r.mu.Lock()
	mode := r.mode
	backend := r.fc
	if mode == teleop.ModeCodeGen {
		backend = r.cg
	}
	r.mu.Unlock()

	env := backend.ProcessMessage(ctx, text)
	env.Mode = mode
	return env
}

// UpdateModelConfig rebuilds both backends against the new parameters.
// The new pair is built before the swap, so the change is atomic from the
// caller's perspective: old backends are never used once the new ones exist.
func (r *Router) UpdateModelConfig(cfg ModelConfig) {
	fc, cg := r.build(cfg)
	r.mu.Lock()
	r.cfg = cfg
	r.fc, r.cg = fc, cg
	r.mu.Unlock()
	r.logger.Info("model config updated", zap.String("model", cfg.Model))
}

// ResetConversation resets both backends' transient turn state. The tool
// catalog is untouched.
func (r *Router) ResetConversation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fc.Reset()
	r.cg.Reset()
}

// AvailableTools returns the shared catalog's schemas.
func (r *Router) AvailableTools() []teleop.ToolSchema {
	return r.catalog.Schemas()
}
