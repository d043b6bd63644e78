package testutil

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/mcoot/roomchat/internal/model"
)

// FakeSubscriber records frames in a bounded queue, like a real connection
// whose write pump has stalled
type FakeSubscriber struct {
	id       string
	identity model.Identity
	queue    chan []byte

	mu      sync.Mutex
	dropped bool
}

// NewFakeSubscriber creates a subscriber with the given queue capacity
func NewFakeSubscriber(id string, identity model.Identity, capacity int) *FakeSubscriber {
	return &FakeSubscriber{
		id:       id,
		identity: identity,
		queue:    make(chan []byte, capacity),
	}
}

func (f *FakeSubscriber) ID() string               { return f.id }
func (f *FakeSubscriber) Identity() model.Identity { return f.identity }

// Enqueue adds a frame unless the queue is full or the subscriber was dropped
func (f *FakeSubscriber) Enqueue(frame []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dropped {
		return false
	}
	select {
	case f.queue <- frame:
		return true
	default:
		return false
	}
}

// Drop marks the subscriber as evicted
func (f *FakeSubscriber) Drop() {
	f.mu.Lock()
	f.dropped = true
	f.mu.Unlock()
}

// Dropped reports whether the subscriber was evicted
func (f *FakeSubscriber) Dropped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Pending returns the number of queued frames
func (f *FakeSubscriber) Pending() int {
	return len(f.queue)
}

// Frames drains and decodes every queued frame
func (f *FakeSubscriber) Frames() []Frame {
	var frames []Frame
	for {
		select {
		case raw := <-f.queue:
			var fr Frame
			if err := json.Unmarshal(raw, &fr); err == nil {
				frames = append(frames, fr)
			}
		default:
			return frames
		}
	}
}

// RawFrames drains every queued frame without decoding
func (f *FakeSubscriber) RawFrames() [][]byte {
	var frames [][]byte
	for {
		select {
		case raw := <-f.queue:
			frames = append(frames, raw)
		default:
			return frames
		}
	}
}

// Next waits for the next frame
func (f *FakeSubscriber) Next(timeout time.Duration) (Frame, bool) {
	select {
	case raw := <-f.queue:
		var fr Frame
		_ = json.Unmarshal(raw, &fr)
		return fr, true
	case <-time.After(timeout):
		return Frame{}, false
	}
}
