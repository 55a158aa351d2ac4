package events

import "sync"

// Handler receives a published event. Handlers run synchronously on the
// publishing goroutine; publishing never observes a return value.
type Handler func(Event)

// Bus is an in-process, fire-and-forget event dispatcher keyed by event name.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for an event name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish delivers the event to every subscriber of its name, in
// subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := b.handlers[e.EventName()]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
