// Package events fans recent activity (uploads, saves, SDK generations) out
// to websocket subscribers and keeps a bounded in-memory ring for polling.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prasenjit/spechub/internal/models"
)

// Hub records activity events and notifies subscribers.
type Hub struct {
	mu          sync.RWMutex
	events      []*models.Event
	maxEvents   int
	subscribers map[string]chan *models.Event
}

// NewHub creates a hub retaining at most maxEvents recent events.
func NewHub(maxEvents int) *Hub {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &Hub{
		events:      make([]*models.Event, 0),
		maxEvents:   maxEvents,
		subscribers: make(map[string]chan *models.Event),
	}
}

// Publish records an event and notifies subscribers without blocking.
func (h *Hub) Publish(event *models.Event) {
	h.mu.Lock()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.events = append(h.events, event)
	if len(h.events) > h.maxEvents {
		h.events = h.events[len(h.events)-h.maxEvents:]
	}

	subscribers := make([]chan *models.Event, 0, len(h.subscribers))
	for _, ch := range h.subscribers {
		subscribers = append(subscribers, ch)
	}

	h.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip rather than block the publisher.
		}
	}
}

// Recent returns up to limit events, newest first.
func (h *Hub) Recent(limit int) []*models.Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.events) {
		limit = len(h.events)
	}

	out := make([]*models.Event, 0, limit)
	for i := len(h.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.events[i])
	}
	return out
}

// Subscribe registers a new subscriber and returns its id and channel.
func (h *Hub) Subscribe() (string, <-chan *models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.Event, 64)
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}
