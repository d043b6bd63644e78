package model

import "time"

// EventType identifies the type of a transport frame
type EventType string

const (
	// Inbound events
	EventJoin  EventType = "join"
	EventLeave EventType = "leave"
	EventSend  EventType = "send"

	// Outbound events
	EventNewMessage  EventType = "new_message"
	EventStatus      EventType = "status"
	EventRoomDeleted EventType = "room_deleted"
)

// Event is an outbound frame delivered to room subscribers or a single connection
type Event struct {
	Type      EventType
	RoomCode  RoomCode
	Timestamp time.Time
	Payload   any // Type-specific data
}

// NewMessagePayload carries a transcript entry
type NewMessagePayload struct {
	Message Message
}

// StatusPayload reports the outcome of an inbound event to its sender
type StatusPayload struct {
	Action EventType
	OK     bool
	Code   string    // Error code when OK is false
	Detail string    // Human-readable error message
	Room   *RoomView // Set after a successful join
}

// RoomDeletedPayload is sent when an administrator removes a room
type RoomDeletedPayload struct {
	Code RoomCode
	By   Identity
}
