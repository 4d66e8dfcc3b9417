package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Listener receives execution events
type Listener interface {
	OnExecutionEvent(ev ExecutionEvent)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(ev ExecutionEvent)

// OnExecutionEvent calls f(ev)
func (f ListenerFunc) OnExecutionEvent(ev ExecutionEvent) {
	f(ev)
}

// Bus delivers events to its listeners synchronously, on the publishing
// goroutine. Listeners may therefore be called concurrently by different
// units and must be safe for that.
type Bus struct {
	mu        sync.RWMutex
	listeners map[uint64]Listener
	nextID    uint64

	seq atomic.Uint64

	logger *slog.Logger
}

// NewBus creates an empty bus
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		listeners: make(map[uint64]Listener),
		logger:    logger,
	}
}

var defaultBus = NewBus(nil)

// Default returns the process-wide bus
func Default() *Bus {
	return defaultBus
}

// Subscribe registers l and returns a function that removes it again
func (b *Bus) Subscribe(l Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// ListenerCount returns the number of registered listeners
func (b *Bus) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Publish stamps ev with the next sequence number and hands it to every
// listener. A panicking listener is logged and does not stop delivery.
func (b *Bus) Publish(ev ExecutionEvent) {
	ev.Sequence = b.seq.Add(1)

	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.RUnlock()

	for _, l := range listeners {
		b.deliver(l, ev)
	}
}

func (b *Bus) deliver(l Listener, ev ExecutionEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("execution event listener panicked",
				"event", ev.Type.String(),
				"data_source", ev.DataSource,
				"panic", r)
		}
	}()
	l.OnExecutionEvent(ev)
}
