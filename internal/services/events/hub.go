package events

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
)

const subscriberBuffer = 64

// Hub is the in-process event fanout. Publish never blocks: a subscriber
// whose buffer is full loses the event rather than stalling the scheduler
// or the browser pool.
type Hub struct {
	logger arbor.ILogger

	mu   sync.RWMutex
	subs map[int]chan interfaces.Event
	next int
}

// NewHub creates an event hub.
func NewHub(logger arbor.ILogger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[int]chan interfaces.Event),
	}
}

// Publish fans the event out to every subscriber.
func (h *Hub) Publish(_ context.Context, event interfaces.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.logger.Debug().
				Int("subscriber", id).
				Str("event_type", string(event.Type)).
				Msg("Dropped event for slow subscriber")
		}
	}
	return nil
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called to release the subscription.
func (h *Hub) Subscribe() (<-chan interfaces.Event, func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	ch := make(chan interfaces.Event, subscriberBuffer)
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

var _ interfaces.EventService = (*Hub)(nil)
