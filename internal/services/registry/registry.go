package registry

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/roomchat/internal/channel"
	"github.com/mcoot/roomchat/internal/dependencies/clock"
	"github.com/mcoot/roomchat/internal/model"
	"github.com/mcoot/roomchat/internal/services/roomcode"
)

// Broadcaster fans an event out to a room's subscribers without blocking.
// Group changes that must line up with membership are made from inside the
// room section.
type Broadcaster interface {
	Broadcast(code model.RoomCode, event model.Event) int
	UnsubscribeIdentity(code model.RoomCode, identity model.Identity) []channel.Subscriber
	CloseRoom(code model.RoomCode) []channel.Subscriber
}

// Config holds registry settings
type Config struct {
	// TranscriptLimit bounds each room's transcript
	TranscriptLimit int
	// PasswordCost is the bcrypt cost for room passwords
	PasswordCost int
}

// DefaultConfig returns the default registry configuration
func DefaultConfig() Config {
	return Config{
		TranscriptLimit: model.DefaultTranscriptLimit,
		PasswordCost:    bcrypt.DefaultCost,
	}
}

// entry wraps a room with the lock guarding its members and transcript.
// Lock order is always entry.mu before Registry.mu.
type entry struct {
	mu      sync.Mutex
	room    *model.Room
	deleted bool
}

// LeaveResult describes what a leave did
type LeaveResult struct {
	Left    bool // identity was a member and has been removed
	Deleted bool // the room drained and no longer exists
}

// Registry owns every live room
type Registry struct {
	mu    sync.RWMutex
	rooms map[model.RoomCode]*entry

	codes       *roomcode.Generator
	broadcaster Broadcaster
	clock       clock.Clock
	cfg         Config
	logger      *slog.Logger
}

// New creates an empty Registry
func New(codes *roomcode.Generator, broadcaster Broadcaster, clk clock.Clock, cfg Config, logger *slog.Logger) *Registry {
	if cfg.TranscriptLimit <= 0 {
		cfg.TranscriptLimit = model.DefaultTranscriptLimit
	}
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = bcrypt.DefaultCost
	}
	return &Registry{
		rooms:       make(map[model.RoomCode]*entry),
		codes:       codes,
		broadcaster: broadcaster,
		clock:       clk,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "registry")),
	}
}

// NormalizeCode trims and upper-cases a user-supplied room code
func NormalizeCode(code string) model.RoomCode {
	return model.RoomCode(strings.ToUpper(strings.TrimSpace(code)))
}

// CreateRoom registers a new room with the creator as its only member
func (r *Registry) CreateRoom(name string, creator model.Identity, password string) (model.RoomView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.RoomView{}, model.ErrEmptyRoomName
	}
	if creator == "" {
		return model.RoomView{}, model.ErrUnauthenticated
	}

	var hash string
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), r.cfg.PasswordCost)
		if err != nil {
			return model.RoomView{}, fmt.Errorf("hash room password: %w", err)
		}
		hash = string(h)
	}

	r.mu.Lock()
	code := r.codes.Generate(func(c model.RoomCode) bool {
		_, taken := r.rooms[c]
		return taken
	})
	room := model.NewRoom(code, name, creator, hash, r.cfg.TranscriptLimit, r.clock.Now())
	r.rooms[code] = &entry{room: room}
	view := room.View()
	r.mu.Unlock()

	r.logger.Info("room created",
		slog.String("room", string(code)),
		slog.String("creator", string(creator)),
		slog.Bool("protected", hash != ""))
	return view, nil
}

// JoinRoom adds identity to the room. Joining a room you are already in is a
// no-op reported by joined=false. Existing members are not asked for the
// password again.
func (r *Registry) JoinRoom(code model.RoomCode, identity model.Identity, password string) (model.RoomView, bool, error) {
	e := r.lookup(code)
	if e == nil {
		return model.RoomView{}, false, model.ErrRoomNotFound
	}

	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return model.RoomView{}, false, model.ErrRoomNotFound
	}
	if e.room.HasMember(identity) {
		view := e.room.View()
		e.mu.Unlock()
		return view, false, nil
	}
	hash := e.room.PasswordHash
	e.mu.Unlock()

	// bcrypt is slow; verify outside the room section. The hash never changes.
	if hash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
			r.logger.Info("room join rejected",
				slog.String("room", string(code)),
				slog.String("identity", string(identity)))
			return model.RoomView{}, false, model.ErrWrongPassword
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return model.RoomView{}, false, model.ErrRoomNotFound
	}
	if e.room.HasMember(identity) {
		return e.room.View(), false, nil
	}
	e.room.Members[identity] = struct{}{}

	r.logger.Info("room joined",
		slog.String("room", string(code)),
		slog.String("identity", string(identity)),
		slog.Int("members", len(e.room.Members)))
	return e.room.View(), true, nil
}

// LeaveRoom removes identity from the room. The "left" notice is appended and
// broadcast before the removal becomes visible, then identity's connections
// leave the group. A drained room is deleted in the same section.
func (r *Registry) LeaveRoom(code model.RoomCode, identity model.Identity) LeaveResult {
	e := r.lookup(code)
	if e == nil {
		return LeaveResult{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted || !e.room.HasMember(identity) {
		return LeaveResult{}
	}

	r.appendLocked(e, model.SystemAuthor, string(identity)+" left the chat.")
	delete(e.room.Members, identity)
	r.broadcaster.UnsubscribeIdentity(code, identity)

	result := LeaveResult{Left: true}
	if len(e.room.Members) == 0 {
		r.removeLocked(e)
		result.Deleted = true
		r.logger.Info("room drained and deleted", slog.String("room", string(code)))
	} else {
		r.logger.Info("room left",
			slog.String("room", string(code)),
			slog.String("identity", string(identity)),
			slog.Int("members", len(e.room.Members)))
	}
	return result
}

// DeleteRoom removes a room regardless of membership, telling every
// subscriber first. It returns the members at the time of deletion.
// Callers are responsible for checking privilege.
func (r *Registry) DeleteRoom(code model.RoomCode, by model.Identity) ([]model.Identity, error) {
	e := r.lookup(code)
	if e == nil {
		return nil, model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, model.ErrRoomNotFound
	}

	r.appendLocked(e, model.SystemAuthor, "This room was deleted by an administrator.")
	r.broadcaster.Broadcast(code, model.Event{
		Type:      model.EventRoomDeleted,
		RoomCode:  code,
		Timestamp: r.clock.Now(),
		Payload:   model.RoomDeletedPayload{Code: code, By: by},
	})

	members := e.room.MemberList()
	subs := r.removeLocked(e)
	r.logger.Info("room deleted by administrator",
		slog.String("room", string(code)),
		slog.String("by", string(by)),
		slog.Int("members", len(members)),
		slog.Int("connections", len(subs)))
	return members, nil
}

// AppendMessage adds a user message to the transcript and broadcasts it.
// The author must currently be a member.
func (r *Registry) AppendMessage(code model.RoomCode, author model.Identity, body string) (model.Message, error) {
	if strings.TrimSpace(body) == "" {
		return model.Message{}, model.ErrEmptyMessage
	}
	e := r.lookup(code)
	if e == nil {
		return model.Message{}, model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return model.Message{}, model.ErrRoomNotFound
	}
	if !e.room.HasMember(author) {
		return model.Message{}, model.ErrNotInRoom
	}
	return r.appendLocked(e, author, body), nil
}

// AppendSystem adds a System notice to the transcript and broadcasts it
func (r *Registry) AppendSystem(code model.RoomCode, body string) error {
	e := r.lookup(code)
	if e == nil {
		return model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return model.ErrRoomNotFound
	}
	r.appendLocked(e, model.SystemAuthor, body)
	return nil
}

// GetRoom returns the room as seen by one of its members
func (r *Registry) GetRoom(code model.RoomCode, identity model.Identity) (model.RoomView, error) {
	e := r.lookup(code)
	if e == nil {
		return model.RoomView{}, model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return model.RoomView{}, model.ErrRoomNotFound
	}
	if !e.room.HasMember(identity) {
		return model.RoomView{}, model.ErrNotInRoom
	}
	return e.room.View(), nil
}

// IsMember returns true if the room exists and identity is in it
func (r *Registry) IsMember(code model.RoomCode, identity model.Identity) bool {
	e := r.lookup(code)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.deleted && e.room.HasMember(identity)
}

// Exists returns true if the room is live
func (r *Registry) Exists(code model.RoomCode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[code]
	return ok
}

// ListRooms returns a summary of every live room, oldest first
func (r *Registry) ListRooms() []model.RoomSummary {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.rooms))
	for _, e := range r.rooms {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	summaries := make([]model.RoomSummary, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			summaries = append(summaries, e.room.Summary())
		}
		e.mu.Unlock()
	}

	slices.SortFunc(summaries, func(a, b model.RoomSummary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	return summaries
}

func (r *Registry) lookup(code model.RoomCode) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[code]
}

// appendLocked requires e.mu
func (r *Registry) appendLocked(e *entry, author model.Identity, body string) model.Message {
	msg := model.Message{
		Author:    author,
		Body:      body,
		Timestamp: r.clock.Now(),
	}
	e.room.Transcript.Append(msg)
	r.broadcaster.Broadcast(e.room.Code, model.Event{
		Type:      model.EventNewMessage,
		RoomCode:  e.room.Code,
		Timestamp: msg.Timestamp,
		Payload:   model.NewMessagePayload{Message: msg},
	})
	return msg
}

// removeLocked requires e.mu. The code cannot be re-drawn until the group
// is closed, so a new room never inherits old subscribers.
func (r *Registry) removeLocked(e *entry) []channel.Subscriber {
	e.deleted = true
	subs := r.broadcaster.CloseRoom(e.room.Code)
	r.mu.Lock()
	delete(r.rooms, e.room.Code)
	r.mu.Unlock()
	return subs
}
