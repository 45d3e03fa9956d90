package testutils

import (
	"sync"
	"time"
)

// FixedTime is the instant every test clock starts at.
var FixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Clock is a settable time source safe for concurrent use.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a clock set to FixedTime.
func NewClock() *Clock {
	return &Clock{t: FixedTime}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
