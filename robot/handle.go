package robot

import (
	"context"
	"fmt"
	"sync"
)

// Handle owns one robot connection for the lifetime of a session. The
// connection is established lazily on first use and reused by every tool
// call thereafter; the owner closes it when the session ends. A Handle is
// an explicit owned resource, passed to whoever needs it, never a
// process-wide singleton.
type Handle struct {
	transport Transport

	mu        sync.Mutex
	connected bool
}

// NewHandle wraps a transport without connecting it.
func NewHandle(t Transport) *Handle {
	return &Handle{transport: t}
}

// use returns the transport, connecting it first if this is the first call.
func (h *Handle) use(ctx context.Context) (Transport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connected {
		if err := h.transport.Connect(ctx); err != nil {
			return nil, fmt.Errorf("robot: connect: %w", err)
		}
		h.connected = true
	}
	return h.transport, nil
}

// Close releases the connection. Safe to call on a Handle that never
// connected.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connected {
		return nil
	}
	h.connected = false
	return h.transport.Close()
}
