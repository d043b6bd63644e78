package model

import (
	"slices"
	"time"
)

// RoomCode is the short identifier users type to join a room
type RoomCode string

// Identity is the authenticated principal name attached to connections and messages
type Identity string

// SystemAuthor is the reserved author for membership and administrative notices
const SystemAuthor Identity = "System"

// DefaultTranscriptLimit is the number of messages kept per room
const DefaultTranscriptLimit = 100

// Room is a live chat room. It is owned by the registry and guarded by the
// registry's per-room lock; callers outside the registry only see RoomView copies.
type Room struct {
	Code         RoomCode
	Name         string
	Creator      Identity
	PasswordHash string // empty when the room is open
	Members      map[Identity]struct{}
	Transcript   *Transcript
	CreatedAt    time.Time
}

// NewRoom creates a room whose only member is the creator
func NewRoom(code RoomCode, name string, creator Identity, passwordHash string, transcriptLimit int, now time.Time) *Room {
	return &Room{
		Code:         code,
		Name:         name,
		Creator:      creator,
		PasswordHash: passwordHash,
		Members:      map[Identity]struct{}{creator: {}},
		Transcript:   NewTranscript(transcriptLimit),
		CreatedAt:    now,
	}
}

// IsProtected returns true if joining requires a password
func (r *Room) IsProtected() bool {
	return r.PasswordHash != ""
}

// HasMember returns true if the identity is currently joined
func (r *Room) HasMember(id Identity) bool {
	_, ok := r.Members[id]
	return ok
}

// MemberList returns members sorted by name
func (r *Room) MemberList() []Identity {
	members := make([]Identity, 0, len(r.Members))
	for id := range r.Members {
		members = append(members, id)
	}
	slices.Sort(members)
	return members
}

// View returns a copy of the room state safe to hand out
func (r *Room) View() RoomView {
	return RoomView{
		Code:       r.Code,
		Name:       r.Name,
		Creator:    r.Creator,
		Protected:  r.IsProtected(),
		Members:    r.MemberList(),
		Transcript: r.Transcript.Messages(),
		CreatedAt:  r.CreatedAt,
	}
}

// Summary returns the listing projection of the room
func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		Code:        r.Code,
		Name:        r.Name,
		MemberCount: len(r.Members),
		Protected:   r.IsProtected(),
		CreatedAt:   r.CreatedAt,
	}
}

// RoomView is a point-in-time snapshot of a room as seen by a member
type RoomView struct {
	Code       RoomCode
	Name       string
	Creator    Identity
	Protected  bool
	Members    []Identity
	Transcript []Message
	CreatedAt  time.Time
}

// RoomSummary is the lightweight record shown in room listings
type RoomSummary struct {
	Code        RoomCode
	Name        string
	MemberCount int
	Protected   bool
	CreatedAt   time.Time
}
