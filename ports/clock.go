package ports

import "time"

// Clock abstracts wall-clock reads. Rotation expiry, cooldowns, and
// experiment end times are all lazy comparisons against Now().
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return ClockFunc(time.Now) }
