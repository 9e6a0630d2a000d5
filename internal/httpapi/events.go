package httpapi

import (
	"sync"

	"github.com/aruvell/marksub/internal/service"
)

// subscriberBuffer is how many events a subscriber may fall behind
// before the hub starts dropping events for it.
const subscriberBuffer = 64

// EventHub fans translation run events out to SSE subscribers. It
// implements service.EventSink, so the service can publish pipeline
// progress straight into connected clients.
type EventHub struct {
	mu   sync.Mutex
	subs map[chan service.RunEvent]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[chan service.RunEvent]struct{})}
}

// Publish delivers the event to every subscriber without blocking.
// Slow subscribers lose events rather than stalling a run.
func (h *EventHub) Publish(event service.RunEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *EventHub) subscribe() chan service.RunEvent {
	ch := make(chan service.RunEvent, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) unsubscribe(ch chan service.RunEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}
