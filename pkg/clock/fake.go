package clock

import (
	"sync"
	"time"
)

// Fake is a settable Clock for deterministic tests.
// It is safe for concurrent use and never moves backwards on Advance.
type Fake struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFake creates a Fake clock frozen at the given time.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the currently configured time.
func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (f *Fake) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the clock to t. Times earlier than the current time are ignored
// to preserve monotonicity.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Before(f.now) {
		return
	}
	f.now = t
}
