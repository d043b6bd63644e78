package session

import (
	"log/slog"
	"sync"

	"github.com/mcoot/roomchat/internal/model"
)

// Binding is the room an identity is currently viewing and the connection
// that entered it. ConnID is empty when the room was entered over plain HTTP.
type Binding struct {
	Code   model.RoomCode
	ConnID string
}

// Store remembers each identity's active room. Every operation is atomic per
// identity.
type Store struct {
	mu       sync.Mutex
	bindings map[model.Identity]Binding
	logger   *slog.Logger
}

// New creates an empty Store
func New(logger *slog.Logger) *Store {
	return &Store{
		bindings: make(map[model.Identity]Binding),
		logger:   logger.With(slog.String("component", "session")),
	}
}

// Enter binds identity to a room and returns the previous binding, if any
func (s *Store) Enter(identity model.Identity, code model.RoomCode, connID string) (Binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.bindings[identity]
	s.bindings[identity] = Binding{Code: code, ConnID: connID}
	s.logger.Debug("active room set",
		slog.String("identity", string(identity)),
		slog.String("room", string(code)),
		slog.String("conn_id", connID))
	return prev, had
}

// Visit binds identity to code with no connection, unless it is already
// bound to code. It reports whether the binding changed.
func (s *Store) Visit(identity model.Identity, code model.RoomCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bindings[identity]; ok && b.Code == code {
		return false
	}
	s.bindings[identity] = Binding{Code: code}
	return true
}

// Current returns the identity's active room
func (s *Store) Current(identity model.Identity) (Binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[identity]
	return b, ok
}

// Clear forgets the identity's active room unconditionally
func (s *Store) Clear(identity model.Identity) (Binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[identity]
	if ok {
		delete(s.bindings, identity)
		s.logger.Debug("active room cleared", slog.String("identity", string(identity)))
	}
	return b, ok
}

// ClearIf forgets the active room only if it is still code
func (s *Store) ClearIf(identity model.Identity, code model.RoomCode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[identity]
	if !ok || b.Code != code {
		return false
	}
	delete(s.bindings, identity)
	return true
}

// ClearConn forgets the active room only if connID entered it. It returns
// the removed binding.
func (s *Store) ClearConn(identity model.Identity, connID string) (Binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[identity]
	if !ok || b.ConnID != connID {
		return Binding{}, false
	}
	delete(s.bindings, identity)
	return b, true
}

// Release keeps the active room but detaches it from connID, if connID
// entered it
func (s *Store) Release(identity model.Identity, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[identity]
	if !ok || b.ConnID != connID {
		return false
	}
	s.bindings[identity] = Binding{Code: b.Code}
	return true
}
