package mocks

import (
	"sync"

	"github.com/mcoot/roomchat/internal/dependencies/random"
)

// MockRandom replays queued strings. Once the queue is exhausted it falls back
// to a real generator so concurrent tests never see duplicate codes.
type MockRandom struct {
	mu       sync.Mutex
	queue    []string
	fallback random.Random
	calls    int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{fallback: random.New()}
}

// String returns the next queued result
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.queue) == 0 {
		return r.fallback.String(length, alphabet)
	}
	next := r.queue[0]
	r.queue = r.queue[1:]
	return next
}

// QueueString adds values to the result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	r.queue = append(r.queue, values...)
	r.mu.Unlock()
}

// Calls returns how many strings have been drawn
func (r *MockRandom) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
