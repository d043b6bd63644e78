package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/roomchat/internal/api/apierr"
	"github.com/mcoot/roomchat/internal/api/middleware"
	"github.com/mcoot/roomchat/internal/api/request"
	"github.com/mcoot/roomchat/internal/api/response"
	"github.com/mcoot/roomchat/internal/services/chat"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	gateway *chat.Gateway
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(gateway *chat.Gateway) *RoomHandler {
	return &RoomHandler{gateway: gateway}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.gateway.ListRooms(middleware.MustGetPrincipal(r.Context()))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomSummariesFromModel(rooms))
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if err := decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	room, err := h.gateway.CreateRoom(middleware.MustGetPrincipal(r.Context()), req.Name, req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.Created(w, "/api/v1/rooms/"+string(room.Code), response.RoomFromModel(room))
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.gateway.Room(middleware.MustGetPrincipal(r.Context()), mux.Vars(r)["code"])
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Join handles POST /api/v1/rooms/{code}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinRoomRequest
	if err := decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	room, err := h.gateway.JoinRoom(middleware.MustGetPrincipal(r.Context()), mux.Vars(r)["code"], req.Password)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}

// Leave handles POST /api/v1/rooms/{code}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.LeaveRoom(middleware.MustGetPrincipal(r.Context()), mux.Vars(r)["code"]); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}

// SendMessage handles POST /api/v1/rooms/{code}/messages
func (h *RoomHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req request.SendMessageRequest
	if err := decode(r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	msg, err := h.gateway.SendMessage(middleware.MustGetPrincipal(r.Context()), mux.Vars(r)["code"], req.Body)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.MessageFromModel(msg))
}

// Delete handles DELETE /api/v1/rooms/{code} (administrators only)
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway.DeleteRoom(middleware.MustGetPrincipal(r.Context()), mux.Vars(r)["code"]); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}
