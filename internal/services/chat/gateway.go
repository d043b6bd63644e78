package chat

import (
	"errors"
	"log/slog"

	"github.com/mcoot/roomchat/internal/channel"
	"github.com/mcoot/roomchat/internal/model"
	"github.com/mcoot/roomchat/internal/services/registry"
	"github.com/mcoot/roomchat/internal/services/session"
)

// RequireIdentity fails unless the principal is authenticated
func RequireIdentity(p *model.Principal) error {
	if p == nil || p.Identity == "" {
		return model.ErrUnauthenticated
	}
	return nil
}

// RequireAdmin fails unless the principal is an authenticated administrator
func RequireAdmin(p *model.Principal) error {
	if err := RequireIdentity(p); err != nil {
		return err
	}
	if !p.IsAdmin {
		return model.ErrForbidden
	}
	return nil
}

// Gateway turns client requests into registry, session and channel operations.
// HTTP handlers call it directly; streaming connections go through a Conn.
type Gateway struct {
	registry *registry.Registry
	sessions *session.Store
	hubs     *channel.HubManager
	logger   *slog.Logger
}

// New creates a new Gateway
func New(reg *registry.Registry, sessions *session.Store, hubs *channel.HubManager, logger *slog.Logger) *Gateway {
	return &Gateway{
		registry: reg,
		sessions: sessions,
		hubs:     hubs,
		logger:   logger.With(slog.String("component", "chat")),
	}
}

// CreateRoom creates a room owned by the principal and makes it their active room
func (g *Gateway) CreateRoom(p *model.Principal, name, password string) (model.RoomView, error) {
	if err := RequireIdentity(p); err != nil {
		return model.RoomView{}, err
	}
	room, err := g.registry.CreateRoom(name, p.Identity, password)
	if err != nil {
		return model.RoomView{}, err
	}
	g.sessions.Visit(p.Identity, room.Code)
	return room, nil
}

// ListRooms returns every live room
func (g *Gateway) ListRooms(p *model.Principal) ([]model.RoomSummary, error) {
	if err := RequireIdentity(p); err != nil {
		return nil, err
	}
	return g.registry.ListRooms(), nil
}

// JoinRoom joins a room without a streaming connection
func (g *Gateway) JoinRoom(p *model.Principal, rawCode, password string) (model.RoomView, error) {
	if err := RequireIdentity(p); err != nil {
		return model.RoomView{}, err
	}
	code := registry.NormalizeCode(rawCode)
	view, joined, err := g.registry.JoinRoom(code, p.Identity, password)
	if err != nil {
		return model.RoomView{}, err
	}
	g.sessions.Visit(p.Identity, code)
	if joined {
		view = g.announceJoin(code, p.Identity, view)
	}
	return view, nil
}

// Room returns the member view of a room and makes it the active room
func (g *Gateway) Room(p *model.Principal, rawCode string) (model.RoomView, error) {
	if err := RequireIdentity(p); err != nil {
		return model.RoomView{}, err
	}
	code := registry.NormalizeCode(rawCode)
	view, err := g.registry.GetRoom(code, p.Identity)
	if err != nil {
		return model.RoomView{}, err
	}
	g.sessions.Visit(p.Identity, code)
	return view, nil
}

// SendMessage posts a message to a room the principal belongs to
func (g *Gateway) SendMessage(p *model.Principal, rawCode, body string) (model.Message, error) {
	if err := RequireIdentity(p); err != nil {
		return model.Message{}, err
	}
	return g.registry.AppendMessage(registry.NormalizeCode(rawCode), p.Identity, body)
}

// LeaveRoom removes the principal from a room. Leaving a room you are not in
// is a no-op.
func (g *Gateway) LeaveRoom(p *model.Principal, rawCode string) error {
	if err := RequireIdentity(p); err != nil {
		return err
	}
	g.leave(registry.NormalizeCode(rawCode), p.Identity)
	return nil
}

// DeleteRoom removes a room on behalf of an administrator. Members are told
// before the room disappears and their active room is cleared.
func (g *Gateway) DeleteRoom(p *model.Principal, rawCode string) error {
	if err := RequireAdmin(p); err != nil {
		return err
	}
	code := registry.NormalizeCode(rawCode)
	members, err := g.registry.DeleteRoom(code, p.Identity)
	if err != nil {
		return err
	}
	for _, member := range members {
		g.sessions.ClearIf(member, code)
	}
	g.logger.Info("room deleted",
		slog.String("room", string(code)),
		slog.String("by", string(p.Identity)),
		slog.Int("members", len(members)))
	return nil
}

// ClearSession forgets the principal's active room. Membership is unaffected.
func (g *Gateway) ClearSession(p *model.Principal) error {
	if err := RequireIdentity(p); err != nil {
		return err
	}
	g.sessions.Clear(p.Identity)
	return nil
}

// ActiveRoom returns the principal's active room, if any
func (g *Gateway) ActiveRoom(p *model.Principal) (model.RoomCode, bool) {
	if RequireIdentity(p) != nil {
		return "", false
	}
	b, ok := g.sessions.Current(p.Identity)
	return b.Code, ok
}

func (g *Gateway) announceJoin(code model.RoomCode, identity model.Identity, view model.RoomView) model.RoomView {
	if err := g.registry.AppendSystem(code, string(identity)+" joined the chat."); err != nil {
		// The room was deleted between the join and the notice
		g.logger.Warn("join notice not delivered",
			slog.String("room", string(code)),
			slog.Any("error", err))
		return view
	}
	if fresh, err := g.registry.GetRoom(code, identity); err == nil {
		return fresh
	}
	return view
}

// leave removes identity from the room and forgets it as the active room.
// The registry takes identity's connections out of the room's group.
func (g *Gateway) leave(code model.RoomCode, identity model.Identity) registry.LeaveResult {
	result := g.registry.LeaveRoom(code, identity)
	g.sessions.ClearIf(identity, code)
	return result
}

// isGone reports errors meaning the connection's room no longer applies to it
func isGone(err error) bool {
	return errors.Is(err, model.ErrRoomNotFound) || errors.Is(err, model.ErrNotInRoom)
}

func logAttrsFor(sub channel.Subscriber) []any {
	return []any{
		slog.String("conn_id", sub.ID()),
		slog.String("identity", string(sub.Identity())),
	}
}
