package service

import "sync"

// EventBus is a simple fan-out pub/sub for layer notifications.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Notification]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Notification]struct{})}
}

// Publish sends a notification to all subscribers (non-blocking).
func (b *EventBus) Publish(n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- n:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives notifications.
func (b *EventBus) Subscribe() chan Notification {
	ch := make(chan Notification, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Notification) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
