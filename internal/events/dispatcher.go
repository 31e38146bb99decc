package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler receives an event.
type Handler func(context.Context, Event)

// Subject is the one observable every propagation path attaches to:
// components in this process subscribe to it, and relays carry its events
// to other gateway instances.
type Subject interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(sessionID string, handler Handler) (unsubscribe func())
}

// Relay forwards locally published events elsewhere.
type Relay interface {
	Forward(ctx context.Context, event Event) error
}

// Hub is an in-memory Subject with optional relays.
type Hub struct {
	origin string
	logger *zap.Logger

	mu     sync.RWMutex
	subs   map[string]map[string]Handler
	relays []Relay
}

var _ Subject = (*Hub)(nil)

// NewHub creates a hub identified by a fresh origin id.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		origin: uuid.NewString(),
		logger: logger,
		subs:   make(map[string]map[string]Handler),
	}
}

// Origin identifies events published by this hub.
func (h *Hub) Origin() string {
	return h.origin
}

// Attach adds a relay for locally published events.
func (h *Hub) Attach(relay Relay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relays = append(h.relays, relay)
}

// Publish fills in event metadata, delivers locally, then relays. Relay
// failures are logged; local delivery has already happened.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Origin == "" {
		event.Origin = h.origin
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	h.Deliver(ctx, event)

	h.mu.RLock()
	relays := append([]Relay{}, h.relays...)
	h.mu.RUnlock()
	for _, relay := range relays {
		if err := relay.Forward(ctx, event); err != nil {
			h.logger.Warn("relay event",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}
	return nil
}

// Deliver invokes the handlers subscribed to the event's session, without
// relaying. Handlers run synchronously, in no particular order.
func (h *Hub) Deliver(ctx context.Context, event Event) {
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs[event.SessionID]))
	for _, handler := range h.subs[event.SessionID] {
		handlers = append(handlers, handler)
	}
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, event)
	}
}

// Subscribe registers a handler for one session.
func (h *Hub) Subscribe(sessionID string, handler Handler) func() {
	id := uuid.NewString()

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[string]Handler)
	}
	h.subs[sessionID][id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[sessionID], id)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
		})
	}
}

// Subscribers counts the handlers registered for a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
