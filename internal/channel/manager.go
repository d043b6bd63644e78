package channel

import (
	"log/slog"
	"sync"

	"github.com/mcoot/roomchat/internal/model"
)

// Encoder turns an event into the bytes written to the wire
type Encoder func(model.Event) ([]byte, error)

// HubManager owns the subscriber groups of all rooms. Broadcasting never blocks
// on a subscriber: frames go into bounded per-connection queues and a
// subscriber whose queue is full is evicted.
type HubManager struct {
	mu     sync.RWMutex
	hubs   map[model.RoomCode]*Hub
	encode Encoder
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(encode Encoder, logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.RoomCode]*Hub),
		encode: encode,
		logger: logger.With(slog.String("component", "channel")),
	}
}

// Subscribe adds a connection to a room's group
func (m *HubManager) Subscribe(code model.RoomCode, sub Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[code]
	if !ok {
		hub = NewHub(code, m.logger)
		m.hubs[code] = hub
	}
	total := hub.add(sub)
	m.logger.Info("subscriber added",
		slog.String("room", string(code)),
		slog.String("conn_id", sub.ID()),
		slog.Int("total_subscribers", total))
}

// Unsubscribe removes a connection from a room's group. Empty groups are discarded.
func (m *HubManager) Unsubscribe(code model.RoomCode, sub Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[code]
	if !ok {
		return
	}
	removed, remaining := hub.remove(sub)
	if remaining == 0 {
		delete(m.hubs, code)
	}
	if removed {
		m.logger.Info("subscriber removed",
			slog.String("room", string(code)),
			slog.String("conn_id", sub.ID()),
			slog.Int("total_subscribers", remaining))
	}
}

// UnsubscribeLast removes a connection from a room's group and reports
// whether it was the last one its identity had there
func (m *HubManager) UnsubscribeLast(code model.RoomCode, sub Subscriber) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[code]
	if !ok {
		return true
	}
	removed, remaining := hub.remove(sub)
	others := remaining > 0 && hub.hasIdentity(sub.Identity())
	if remaining == 0 {
		delete(m.hubs, code)
	}
	if removed {
		m.logger.Info("subscriber removed",
			slog.String("room", string(code)),
			slog.String("conn_id", sub.ID()),
			slog.Int("total_subscribers", remaining))
	}
	return !others
}

// UnsubscribeIdentity removes every connection belonging to identity from a
// room's group and returns them
func (m *HubManager) UnsubscribeIdentity(code model.RoomCode, identity model.Identity) []Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[code]
	if !ok {
		return nil
	}
	removed, remaining := hub.removeIdentity(identity)
	if remaining == 0 {
		delete(m.hubs, code)
	}
	if len(removed) > 0 {
		m.logger.Info("identity unsubscribed",
			slog.String("room", string(code)),
			slog.String("identity", string(identity)),
			slog.Int("connections", len(removed)),
			slog.Int("total_subscribers", remaining))
	}
	return removed
}

// Broadcast delivers an event to every subscriber of a room and returns how
// many queues accepted it. Delivery failures are logged, never returned.
func (m *HubManager) Broadcast(code model.RoomCode, event model.Event) int {
	hub := m.GetHub(code)
	if hub == nil {
		return 0
	}

	frame, err := m.encode(event)
	if err != nil {
		m.logger.Error("failed to encode event",
			slog.String("room", string(code)),
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return 0
	}

	sent, dropped := hub.deliver(frame)
	for _, sub := range dropped {
		m.Unsubscribe(code, sub)
		sub.Drop()
	}
	if len(dropped) > 0 {
		m.logger.Warn("broadcast partial failure",
			slog.String("room", string(code)),
			slog.Int("sent", sent),
			slog.Int("dropped", len(dropped)))
	}
	return sent
}

// Send delivers an event to a single connection, outside any room group
func (m *HubManager) Send(sub Subscriber, event model.Event) bool {
	frame, err := m.encode(event)
	if err != nil {
		m.logger.Error("failed to encode event",
			slog.String("conn_id", sub.ID()),
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return false
	}
	if !sub.Enqueue(frame) {
		m.logger.Warn("direct message dropped - subscriber queue full",
			slog.String("conn_id", sub.ID()))
		return false
	}
	return true
}

// CloseRoom removes a room's group and returns the connections that were in it
func (m *HubManager) CloseRoom(code model.RoomCode) []Subscriber {
	m.mu.Lock()
	hub, ok := m.hubs[code]
	delete(m.hubs, code)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	subs := hub.drain()
	m.logger.Info("room group closed",
		slog.String("room", string(code)),
		slog.Int("disconnected_subscribers", len(subs)))
	return subs
}

// GetHub returns the group for a room, or nil if nobody is subscribed
func (m *HubManager) GetHub(code model.RoomCode) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[code]
}

// SubscriberCount returns the number of connections subscribed to a room
func (m *HubManager) SubscriberCount(code model.RoomCode) int {
	hub := m.GetHub(code)
	if hub == nil {
		return 0
	}
	return hub.Count()
}

// IsSubscribed returns true if the connection is in the room's group
func (m *HubManager) IsSubscribed(code model.RoomCode, sub Subscriber) bool {
	hub := m.GetHub(code)
	return hub != nil && hub.Has(sub)
}
