package handler

import (
	"net/http"

	"github.com/mcoot/roomchat/internal/api/apierr"
	"github.com/mcoot/roomchat/internal/api/middleware"
	"github.com/mcoot/roomchat/internal/api/response"
	"github.com/mcoot/roomchat/internal/services/chat"
)

// SessionHandler handles the caller's active room
type SessionHandler struct {
	gateway *chat.Gateway
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(gateway *chat.Gateway) *SessionHandler {
	return &SessionHandler{gateway: gateway}
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	code, _ := h.gateway.ActiveRoom(middleware.MustGetPrincipal(r.Context()))
	response.JSON(w, http.StatusOK, response.Session{ActiveRoom: string(code)})
}

// ClearRoom handles DELETE /api/v1/session/room, sent when the client
// navigates away from a room
func (h *SessionHandler) ClearRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.ClearSession(middleware.MustGetPrincipal(r.Context())); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}
