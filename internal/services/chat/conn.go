package chat

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/roomchat/internal/channel"
	"github.com/mcoot/roomchat/internal/model"
	"github.com/mcoot/roomchat/internal/services/registry"
)

// ErrConnClosed is returned for requests on a disconnected connection
var ErrConnClosed = errors.New("connection closed")

// State is the lifecycle stage of a streaming connection
type State int

const (
	StateAnonymous State = iota
	StateIdentified
	StateRoomActive
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateIdentified:
		return "identified"
	case StateRoomActive:
		return "room_active"
	case StateDetached:
		return "detached"
	}
	return "unknown"
}

// Conn is the gateway's view of one streaming connection. Requests are
// expected to arrive sequentially from the connection's read loop.
type Conn struct {
	gw  *Gateway
	sub channel.Subscriber

	mu        sync.Mutex
	principal *model.Principal
	room      model.RoomCode
	state     State

	disconnect sync.Once
}

// Attach registers a streaming connection. A nil principal leaves it anonymous.
func (g *Gateway) Attach(sub channel.Subscriber, p *model.Principal) *Conn {
	c := &Conn{gw: g, sub: sub, state: StateAnonymous}
	if RequireIdentity(p) == nil {
		c.principal = p
		c.state = StateIdentified
	}
	g.logger.Debug("connection attached", append(logAttrsFor(sub), slog.String("state", c.state.String()))...)
	return c
}

// State returns the connection's lifecycle stage
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Room returns the room the connection is subscribed to
func (c *Conn) Room() (model.RoomCode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room, c.state == StateRoomActive
}

// Join enters a room. The connection stops receiving events from its previous
// room but stays a member of it.
func (c *Conn) Join(rawCode, password string) (model.RoomView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireIdentifiedLocked(); err != nil {
		return model.RoomView{}, err
	}

	code := registry.NormalizeCode(rawCode)
	identity := c.principal.Identity
	view, joined, err := c.gw.registry.JoinRoom(code, identity, password)
	if err != nil {
		return model.RoomView{}, err
	}

	if c.state == StateRoomActive && c.room != code {
		c.gw.hubs.Unsubscribe(c.room, c.sub)
	}
	c.gw.hubs.Subscribe(code, c.sub)
	c.room = code
	c.state = StateRoomActive
	c.gw.sessions.Enter(identity, code, c.sub.ID())

	if joined {
		view = c.gw.announceJoin(code, identity, view)
	}
	return view, nil
}

// Send posts a message to the connection's room. The room must still be the
// identity's active room.
func (c *Conn) Send(body string) (model.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireRoomLocked(); err != nil {
		return model.Message{}, err
	}
	if b, ok := c.gw.sessions.Current(c.principal.Identity); !ok || b.Code != c.room {
		if !c.gw.registry.Exists(c.room) {
			c.detachLocked()
			return model.Message{}, model.ErrRoomNotFound
		}
		return model.Message{}, model.ErrNoActiveRoom
	}
	if strings.TrimSpace(body) == "" {
		return model.Message{}, model.ErrEmptyMessage
	}

	msg, err := c.gw.registry.AppendMessage(c.room, c.principal.Identity, body)
	if isGone(err) {
		c.detachLocked()
	}
	return msg, err
}

// Leave removes the identity from the connection's room
func (c *Conn) Leave() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireRoomLocked(); err != nil {
		return err
	}
	c.gw.leave(c.room, c.principal.Identity)
	c.gw.hubs.Unsubscribe(c.room, c.sub)
	c.room = ""
	c.state = StateIdentified
	return nil
}

// Disconnect releases the connection. If it was the identity's last
// connection in its room, the identity leaves that room. Safe to call more
// than once; cleanup happens exactly once.
func (c *Conn) Disconnect() {
	c.disconnect.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.state == StateRoomActive {
			identity := c.principal.Identity
			if c.gw.hubs.UnsubscribeLast(c.room, c.sub) {
				c.gw.leave(c.room, identity)
			} else {
				c.gw.sessions.Release(identity, c.sub.ID())
			}
		}
		c.room = ""
		c.state = StateDetached
		c.gw.logger.Debug("connection detached", logAttrsFor(c.sub)...)
	})
}

func (c *Conn) requireIdentifiedLocked() error {
	switch c.state {
	case StateDetached:
		return ErrConnClosed
	case StateAnonymous:
		return model.ErrUnauthenticated
	}
	return nil
}

func (c *Conn) requireRoomLocked() error {
	if err := c.requireIdentifiedLocked(); err != nil {
		return err
	}
	if c.state != StateRoomActive {
		return model.ErrNoActiveRoom
	}
	return nil
}

// detachLocked drops the connection back to Identified after its room went away
func (c *Conn) detachLocked() {
	c.gw.hubs.Unsubscribe(c.room, c.sub)
	c.gw.sessions.ClearConn(c.principal.Identity, c.sub.ID())
	c.room = ""
	c.state = StateIdentified
}
