package channel

import (
	"log/slog"
	"sync"

	"github.com/mcoot/roomchat/internal/model"
)

// Subscriber is a transport connection that can receive room frames
type Subscriber interface {
	// ID uniquely identifies the connection
	ID() string
	// Identity is the principal the connection belongs to
	Identity() model.Identity
	// Enqueue hands a frame to the outbound queue without blocking.
	// It returns false if the queue is full or the connection is closed.
	Enqueue(frame []byte) bool
	// Drop tells the connection it has been evicted. It must not block.
	Drop()
}

// Hub is the subscriber group for a single room
type Hub struct {
	code        model.RoomCode
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	logger      *slog.Logger
}

// NewHub creates an empty Hub for a room
func NewHub(code model.RoomCode, logger *slog.Logger) *Hub {
	return &Hub{
		code:        code,
		subscribers: make(map[string]Subscriber),
		logger:      logger.With(slog.String("room", string(code))),
	}
}

func (h *Hub) add(sub Subscriber) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[sub.ID()] = sub
	return len(h.subscribers)
}

// remove deletes the subscriber and reports whether it was present
func (h *Hub) remove(sub Subscriber) (bool, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.subscribers[sub.ID()]; !ok || existing != sub {
		return false, len(h.subscribers)
	}
	delete(h.subscribers, sub.ID())
	return true, len(h.subscribers)
}

func (h *Hub) removeIdentity(identity model.Identity) ([]Subscriber, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var removed []Subscriber
	for id, sub := range h.subscribers {
		if sub.Identity() == identity {
			removed = append(removed, sub)
			delete(h.subscribers, id)
		}
	}
	return removed, len(h.subscribers)
}

func (h *Hub) hasIdentity(identity model.Identity) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		if sub.Identity() == identity {
			return true
		}
	}
	return false
}

func (h *Hub) drain() []Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make([]Subscriber, 0, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs = append(subs, sub)
		delete(h.subscribers, id)
	}
	return subs
}

// deliver enqueues the frame to every subscriber and returns the ones whose
// queues were full
func (h *Hub) deliver(frame []byte) (int, []Subscriber) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	var dropped []Subscriber
	for _, sub := range h.subscribers {
		if sub.Enqueue(frame) {
			sent++
			continue
		}
		dropped = append(dropped, sub)
		h.logger.Warn("message dropped - subscriber queue full",
			slog.String("conn_id", sub.ID()),
			slog.String("identity", string(sub.Identity())))
	}
	return sent, dropped
}

// Count returns the number of subscribers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Has returns true if the subscriber is in this hub
func (h *Hub) Has(sub Subscriber) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	existing, ok := h.subscribers[sub.ID()]
	return ok && existing == sub
}
