package testutil

import (
	"encoding/json"

	"github.com/mcoot/roomchat/internal/model"
)

// Frame is the decoded form of frames produced by EncodeEvent
type Frame struct {
	Type     model.EventType `json:"type"`
	RoomCode string          `json:"room"`
	Author   string          `json:"author,omitempty"`
	Body     string          `json:"body,omitempty"`
	OK       bool            `json:"ok,omitempty"`
	Code     string          `json:"code,omitempty"`
}

// EncodeEvent is a flat encoder for tests that only care about event content
func EncodeEvent(e model.Event) ([]byte, error) {
	fr := Frame{Type: e.Type, RoomCode: string(e.RoomCode)}
	switch p := e.Payload.(type) {
	case model.NewMessagePayload:
		fr.Author = string(p.Message.Author)
		fr.Body = p.Message.Body
	case model.StatusPayload:
		fr.OK = p.OK
		fr.Code = p.Code
	case model.RoomDeletedPayload:
		fr.Author = string(p.By)
	}
	return json.Marshal(fr)
}
