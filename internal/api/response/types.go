package response

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcoot/roomchat/internal/model"
	"github.com/mcoot/roomchat/internal/services/auth"
)

// User represents an account in API responses
type User struct {
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		Username:  string(u.Username),
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Username     string    `json:"username"`
	IsAdmin      bool      `json:"is_admin"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Username:     string(s.Principal.Identity),
		IsAdmin:      s.Principal.IsAdmin,
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Message is a transcript entry
type Message struct {
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	System    bool      `json:"system,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageFromModel converts a model.Message
func MessageFromModel(m model.Message) Message {
	return Message{
		Author:    string(m.Author),
		Body:      m.Body,
		System:    m.IsSystem(),
		Timestamp: m.Timestamp,
	}
}

// RoomSummary is a room as shown in listings
type RoomSummary struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	MemberCount int       `json:"member_count"`
	Protected   bool      `json:"protected"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoomSummaryFromModel converts a model.RoomSummary
func RoomSummaryFromModel(r model.RoomSummary) RoomSummary {
	return RoomSummary{
		Code:        string(r.Code),
		Name:        r.Name,
		MemberCount: r.MemberCount,
		Protected:   r.Protected,
		CreatedAt:   r.CreatedAt,
	}
}

// RoomSummariesFromModel converts a slice of summaries
func RoomSummariesFromModel(rooms []model.RoomSummary) []RoomSummary {
	out := make([]RoomSummary, len(rooms))
	for i, r := range rooms {
		out[i] = RoomSummaryFromModel(r)
	}
	return out
}

// Room is the member view of a room
type Room struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Creator    string    `json:"creator"`
	Protected  bool      `json:"protected"`
	Members    []string  `json:"members"`
	Transcript []Message `json:"transcript"`
	CreatedAt  time.Time `json:"created_at"`
}

// RoomFromModel converts a model.RoomView
func RoomFromModel(v model.RoomView) Room {
	members := make([]string, len(v.Members))
	for i, m := range v.Members {
		members[i] = string(m)
	}
	transcript := make([]Message, len(v.Transcript))
	for i, m := range v.Transcript {
		transcript[i] = MessageFromModel(m)
	}
	return Room{
		Code:       string(v.Code),
		Name:       v.Name,
		Creator:    string(v.Creator),
		Protected:  v.Protected,
		Members:    members,
		Transcript: transcript,
		CreatedAt:  v.CreatedAt,
	}
}

// Session describes the caller's active room
type Session struct {
	ActiveRoom string `json:"active_room,omitempty"`
}

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

// Event is an outbound WebSocket frame
type Event struct {
	Type      model.EventType `json:"type"`
	Room      string          `json:"room,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewMessagePayload is the payload of a new_message frame
type NewMessagePayload struct {
	Message Message `json:"message"`
}

// StatusPayload is the payload of a status frame
type StatusPayload struct {
	Action  model.EventType `json:"action"`
	OK      bool            `json:"ok"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Room    *Room           `json:"room,omitempty"`
}

// RoomDeletedPayload is the payload of a room_deleted frame
type RoomDeletedPayload struct {
	Code string `json:"code"`
	By   string `json:"by"`
}

// EncodeEvent renders an event as a WebSocket frame
func EncodeEvent(e model.Event) ([]byte, error) {
	var payload any
	switch p := e.Payload.(type) {
	case model.NewMessagePayload:
		payload = NewMessagePayload{Message: MessageFromModel(p.Message)}
	case model.StatusPayload:
		sp := StatusPayload{Action: p.Action, OK: p.OK, Code: p.Code, Message: p.Detail}
		if p.Room != nil {
			room := RoomFromModel(*p.Room)
			sp.Room = &room
		}
		payload = sp
	case model.RoomDeletedPayload:
		payload = RoomDeletedPayload{Code: string(p.Code), By: string(p.By)}
	case nil:
	default:
		return nil, fmt.Errorf("unsupported payload %T for event %s", e.Payload, e.Type)
	}

	out := Event{Type: e.Type, Room: string(e.RoomCode), Timestamp: e.Timestamp}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		out.Payload = raw
	}
	return json.Marshal(out)
}
