package model

import "time"

// Message is a single transcript entry. Messages are immutable once appended.
type Message struct {
	Author    Identity
	Body      string
	Timestamp time.Time
}

// IsSystem returns true for membership and administrative notices
func (m Message) IsSystem() bool {
	return m.Author == SystemAuthor
}

// Transcript is a bounded FIFO log of messages. It has no locking of its own;
// the owning room's lock must be held.
type Transcript struct {
	limit    int
	messages []Message
}

// NewTranscript creates a transcript holding at most limit messages
func NewTranscript(limit int) *Transcript {
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}
	return &Transcript{
		limit:    limit,
		messages: make([]Message, 0, limit),
	}
}

// Append adds a message, evicting the oldest entry once the limit is exceeded
func (t *Transcript) Append(msg Message) {
	if len(t.messages) == t.limit {
		copy(t.messages, t.messages[1:])
		t.messages[len(t.messages)-1] = msg
		return
	}
	t.messages = append(t.messages, msg)
}

// Len returns the number of retained messages
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Limit returns the configured bound
func (t *Transcript) Limit() int {
	return t.limit
}

// Messages returns a copy of the retained messages, oldest first
func (t *Transcript) Messages() []Message {
	result := make([]Message, len(t.messages))
	copy(result, t.messages)
	return result
}
