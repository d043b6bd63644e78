package request

import (
	"encoding/json"

	"github.com/mcoot/roomchat/internal/model"
)

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// JoinRoomRequest is the request body for joining a room
type JoinRoomRequest struct {
	Password string `json:"password,omitempty"`
}

// SendMessageRequest is the request body for posting a message
type SendMessageRequest struct {
	Body string `json:"body"`
}

// Frame is an inbound WebSocket frame
type Frame struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload is the payload of a join frame
type JoinPayload struct {
	Code     string `json:"code"`
	Password string `json:"password,omitempty"`
}

// SendPayload is the payload of a send frame
type SendPayload struct {
	Body string `json:"body"`
}
