package clock

import "time"

// Clock is a source of the current time.
type Clock interface {
	Now() time.Time
}

// System reads the system clock.
type System struct{}

// Now returns the current system time.
func (System) Now() time.Time { return time.Now() }
