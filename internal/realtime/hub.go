package realtime

import (
	"context"
	"sync"

	"loan-tracker/internal/infrastructure/metrics"
)

const DefaultBuffer = 16

type subscription struct {
	ch     chan Event
	filter Filter
	once   sync.Once
}

// Hub fans events out to in-process subscribers. Delivery is at-most-once:
// a subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	next   uint64
	buffer int
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: map[uint64]*subscription{}, buffer: buffer}
}

// Subscribe returns the event stream and a func that ends the subscription
// and closes the stream. A nil filter receives everything.
func (h *Hub) Subscribe(f Filter) (<-chan Event, func()) {
	s := &subscription{ch: make(chan Event, h.buffer), filter: f}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}
	}
	key := h.next
	h.next++
	h.subs[key] = s
	h.mu.Unlock()

	return s.ch, func() {
		h.mu.Lock()
		if _, ok := h.subs[key]; ok {
			delete(h.subs, key)
			s.once.Do(func() { close(s.ch) })
		}
		h.mu.Unlock()
	}
}

// Deliver hands ev to every matching subscriber without blocking and
// reports how many received it.
func (h *Hub) Deliver(ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, s := range h.subs {
		if s.filter != nil && !s.filter(ev) {
			continue
		}
		select {
		case s.ch <- ev:
			n++
		default:
			metrics.RealtimeDropped.Inc()
		}
	}
	return n
}

func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.Deliver(ev)
	return nil
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription; later subscribers get a closed stream.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for key, s := range h.subs {
		delete(h.subs, key)
		s.once.Do(func() { close(s.ch) })
	}
}
