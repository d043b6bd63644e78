package clock

import "time"

// Clock provides the current time so tests can pin timestamps
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current UTC time
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}
