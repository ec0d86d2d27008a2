// Package notify implements the best-effort notification channel: a
// broadcast sink with a background dispatch loop, decoupled from the
// synchronous turn loop. Publishing never blocks; events to slow or absent
// observers are dropped.
package notify

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mwidla/teleop"
)

// Interface compliance check.
var _ teleop.Notifier = (*Broadcaster)(nil)

// Broadcaster fans lifecycle events out to zero or more subscribers.
// Observer connect and disconnect is independent of any in-flight turn.
type Broadcaster struct {
	logger *zap.Logger
	in     chan teleop.Event
	done   chan struct{}

	mu     sync.Mutex
	subs   map[int]chan teleop.Event
	nextID int
	closed bool
}

// Option configures a [Broadcaster].
type Option func(*Broadcaster)

// WithBuffer sets the dispatch and per-subscriber queue depth. Default 64.
func WithBuffer(n int) Option {
	return func(b *Broadcaster) {
		if n > 0 {
			b.in = make(chan teleop.Event, n)
		}
	}
}

// WithLogger sets the logger used to note dropped events. Default is
// zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(b *Broadcaster) { b.logger = l }
}

// New creates a Broadcaster and starts its dispatch loop.
func New(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		logger: zap.NewNop(),
		in:     make(chan teleop.Event, 64),
		done:   make(chan struct{}),
		subs:   make(map[int]chan teleop.Event),
	}
	for _, o := range opts {
		o(b)
	}
	go b.dispatch()
	return b
}

// Publish enqueues an event for delivery. It never blocks: if the dispatch
// queue is full or the broadcaster is closed, the event is dropped.
func (b *Broadcaster) Publish(ev teleop.Event) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}
	select {
	case b.in <- ev:
	default:
		b.logger.Debug("dropping event, dispatch queue full")
	}
}

// Subscribe registers an observer and returns its event channel together
// with an unsubscribe function. The channel is closed on unsubscribe or
// broadcaster shutdown.
func (b *Broadcaster) Subscribe() (<-chan teleop.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan teleop.Event, cap(b.in))
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Close stops the dispatch loop and closes all subscriber channels.
// Publish calls after Close are no-ops.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.in)
	<-b.done
}

// dispatch drains the inbound queue, delivering each event to every
// subscriber without blocking: a full subscriber queue drops the event for
// that subscriber only.
func (b *Broadcaster) dispatch() {
	defer close(b.done)
	for ev := range b.in {
		b.mu.Lock()
		for _, sub := range b.subs {
			select {
			case sub <- ev:
			default:
				b.logger.Debug("dropping event for slow subscriber")
			}
		}
		b.mu.Unlock()
	}

	b.mu.Lock()
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub)
	}
	b.mu.Unlock()
}
