// Package events is the in-process pub/sub bridge between the refresh
// controller and its observers (SSE handler, menu bar app).
package events

import (
	"encoding/json"
	"sync"
)

// subscriberBuffer is the per-subscriber channel depth. A full subscriber
// loses events rather than stalling the publisher.
const subscriberBuffer = 16

// EventHub fans published events out to all subscribers.
type EventHub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new observer channel.
func (h *EventHub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes the channel. Safe to call twice.
func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish marshals the payload and delivers it to every subscriber without
// blocking. A nil hub is a no-op so publishers need no guard.
func (h *EventHub) Publish(name string, payload any) {
	if h == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := Event{Name: name, Data: b}
	h.mu.RLock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default: // slow subscriber, drop
		}
	}
	h.mu.RUnlock()
}
