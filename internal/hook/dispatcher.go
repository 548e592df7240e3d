package hook

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

type entry struct {
	name string
	fn   Func
}

// Dispatcher is a named registry of save handlers.
// Handlers run synchronously, in registration order, in the goroutine calling Fire.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []entry
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Add registers fn under name. An existing handler with the same name is replaced in place.
func (d *Dispatcher) Add(name string, fn Func) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.handlers {
		if d.handlers[i].name == name {
			d.handlers[i].fn = fn
			return
		}
	}

	d.handlers = append(d.handlers, entry{name: name, fn: fn})
	log.Debug().Str("hook", name).Msg("save handler registered")
}

// Remove unregisters the handler named name. Unknown names are ignored.
func (d *Dispatcher) Remove(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.handlers {
		if d.handlers[i].name == name {
			d.handlers = append(d.handlers[:i], d.handlers[i+1:]...)
			log.Debug().Str("hook", name).Msg("save handler removed")

			return
		}
	}
}

// Has reports whether a handler is registered under name.
func (d *Dispatcher) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, h := range d.handlers {
		if h.name == name {
			return true
		}
	}

	return false
}

// Len returns the number of registered handlers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.handlers)
}

// Fire runs all handlers for ev and stops at the first error.
func (d *Dispatcher) Fire(ctx context.Context, ev SaveEvent) error {
	// snapshot, handlers may (de)register while we run
	d.mu.RLock()
	handlers := make([]entry, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		if err := h.fn(ctx, ev); err != nil {
			return fmt.Errorf("save hook %s: %w", h.name, err)
		}
	}

	return nil
}
