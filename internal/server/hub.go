package server

import (
	"sync"

	"github.com/MeKo-Tech/keva/internal/store"
)

// subscriberBuffer is the per-watcher event queue depth. A watcher that
// falls this far behind starts losing events rather than stalling writers.
const subscriberBuffer = 16

// Hub fans committed store mutations out to watch subscribers. Publish runs
// on the request path and must never block, so slow subscribers drop events.
type Hub struct {
	mu   sync.Mutex
	subs map[chan store.Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan store.Event]struct{})}
}

// Subscribe registers a new watcher. The returned cancel function must be
// called when the watcher goes away; it closes the event channel.
func (h *Hub) Subscribe() (<-chan store.Event, func()) {
	ch := make(chan store.Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber without blocking.
func (h *Hub) Publish(ev store.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is not keeping up; it misses this event.
		}
	}
}

// Subscribers returns the number of registered watchers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
