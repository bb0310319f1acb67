package stability

import (
	"time"
)

// Throttle paces a periodic refresh to at most once per interval
type Throttle struct {
	Interval time.Duration
	last     time.Time
}

// NewThrottle creates a throttle that is due immediately
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{Interval: interval}
}

// Due reports whether the interval has elapsed since the last due time and,
// if so, restarts the interval at now
func (t *Throttle) Due(now time.Time) bool {
	if !t.last.IsZero() && now.Sub(t.last) < t.Interval {
		return false
	}
	t.last = now
	return true
}

// Reset makes the throttle due on the next call
func (t *Throttle) Reset() {
	t.last = time.Time{}
}
