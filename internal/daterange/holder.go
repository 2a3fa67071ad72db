// internal/daterange/holder.go
package daterange

import (
	"sync"
	"time"
)

// InitialSpan is how far past now a fresh holder's range ends.
const InitialSpan = 7 * 24 * time.Hour

// Listener is called synchronously with the new range after every Set.
type Listener func(Range)

// Holder keeps the currently selected range. It performs no validation.
type Holder struct {
	mu        sync.RWMutex
	current   Range
	listeners map[int]Listener
	nextID    int
}

// NewHolder returns a holder initialised to {now, now + 7 days}.
func NewHolder(now time.Time) *Holder {
	return &Holder{
		current:   New(now, now.Add(InitialSpan)),
		listeners: make(map[int]Listener),
	}
}

// Get returns the current range.
func (h *Holder) Get() Range {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Set replaces the current range and notifies listeners before returning.
func (h *Holder) Set(r Range) {
	h.mu.Lock()
	h.current = r
	listeners := make([]Listener, 0, len(h.listeners))
	for id := 0; id < h.nextID; id++ {
		if listener, ok := h.listeners[id]; ok {
			listeners = append(listeners, listener)
		}
	}
	h.mu.Unlock()

	for _, listener := range listeners {
		listener(r)
	}
}

// Subscribe registers a listener and returns a function that removes it.
func (h *Holder) Subscribe(listener Listener) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = listener
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}
