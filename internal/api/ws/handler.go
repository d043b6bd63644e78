package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/mcoot/roomchat/internal/api/apierr"
	"github.com/mcoot/roomchat/internal/api/middleware"
	"github.com/mcoot/roomchat/internal/api/request"
	"github.com/mcoot/roomchat/internal/channel"
	"github.com/mcoot/roomchat/internal/dependencies/clock"
	"github.com/mcoot/roomchat/internal/model"
	"github.com/mcoot/roomchat/internal/services/chat"
)

// Handler upgrades authenticated requests to WebSocket connections and feeds
// their frames to the chat gateway
type Handler struct {
	gateway  *chat.Gateway
	hubs     *channel.HubManager
	clock    clock.Clock
	cfg      Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(gateway *chat.Gateway, hubs *channel.HubManager, clk clock.Clock, cfg Config, logger *slog.Logger) *Handler {
	h := &Handler{
		gateway: gateway,
		hubs:    hubs,
		clock:   clk,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "ws")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(cfg.AllowedOrigins) > 0 {
		h.upgrader.CheckOrigin = h.checkOrigin
	}
	return h
}

// ServeHTTP handles GET /api/v1/ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal := middleware.MustGetPrincipal(r.Context())

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	conn := newConnection(wsConn, principal.Identity, h.cfg, h.logger)
	session := h.gateway.Attach(conn, principal)
	conn.logger.Info("websocket connected")

	go conn.writePump()
	conn.readPump(func(data []byte) {
		h.dispatch(conn, session, data)
	})

	session.Disconnect()
	conn.Drop()
	conn.logger.Info("websocket disconnected")
}

func (h *Handler) dispatch(conn *Connection, session *chat.Conn, data []byte) {
	var frame request.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.reply(conn, "", "", apierr.NewInvalidRequestError("malformed frame"), nil)
		return
	}

	switch frame.Type {
	case model.EventJoin:
		var p request.JoinPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			h.reply(conn, frame.Type, "", apierr.NewInvalidRequestError("invalid join payload"), nil)
			return
		}
		view, err := session.Join(p.Code, p.Password)
		if err != nil {
			h.reply(conn, frame.Type, "", err, nil)
			return
		}
		h.reply(conn, frame.Type, view.Code, nil, &view)

	case model.EventSend:
		var p request.SendPayload
		if err := json.Unmarshal(frame.Payload, &p); err != nil {
			h.reply(conn, frame.Type, "", apierr.NewInvalidRequestError("invalid send payload"), nil)
			return
		}
		code, _ := session.Room()
		_, err := session.Send(p.Body)
		h.reply(conn, frame.Type, code, err, nil)

	case model.EventLeave:
		code, _ := session.Room()
		h.reply(conn, frame.Type, code, session.Leave(), nil)

	default:
		h.reply(conn, frame.Type, "", apierr.NewInvalidRequestError("unknown frame type"), nil)
	}
}

// reply sends a status frame to this connection only
func (h *Handler) reply(conn *Connection, action model.EventType, code model.RoomCode, err error, room *model.RoomView) {
	status := model.StatusPayload{Action: action, OK: err == nil, Room: room}
	if err != nil {
		_, apiErr := apierr.Describe(err)
		status.Code = apiErr.Code
		status.Detail = apiErr.Message
		conn.logger.Debug("request rejected",
			slog.String("action", string(action)),
			slog.String("code", apiErr.Code))
	}
	h.hubs.Send(conn, model.Event{
		Type:      model.EventStatus,
		RoomCode:  code,
		Timestamp: h.clock.Now(),
		Payload:   status,
	})
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin)
}
