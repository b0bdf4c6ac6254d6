package usecase

import (
	"context"
	"sync"

	"github.com/taskdeck/backend/domain"
)

// EventHandler reacts to a committed domain event. Handlers must not
// block for long; they run synchronously on the publishing goroutine.
type EventHandler func(ctx context.Context, event domain.Event)

// EventDispatcher routes committed domain events to registered handlers.
// Use cases collect events from entity mutations and publish them here
// only after the repository commit succeeded.
type EventDispatcher struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Register subscribes a handler to an event name as returned by
// domain.Event.EventName.
func (d *EventDispatcher) Register(name string, handler EventHandler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], handler)
}

// Publish delivers the events in order. Events without handlers are
// silently ignored. A nil dispatcher is a valid no-op.
func (d *EventDispatcher) Publish(ctx context.Context, events ...domain.Event) {
	if d == nil {
		return
	}
	for _, event := range events {
		if event == nil {
			continue
		}
		d.mu.RLock()
		handlers := d.handlers[event.EventName()]
		d.mu.RUnlock()
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
