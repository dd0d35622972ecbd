package continuous

import (
	"time"
)

// Window is the span the hourly cap applies to
const Window = time.Hour

// HourlyLimiter caps how many prospects are accepted in any rolling hour.
// It keeps the acceptance time of every prospect still inside the window,
// so at most max timestamps are held. It is not safe for concurrent use;
// the pool that owns it serialises access.
type HourlyLimiter struct {
	max      int
	now      func() time.Time
	accepted []time.Time
}

func NewHourlyLimiter(maxPerHour int, now func() time.Time) *HourlyLimiter {
	if now == nil {
		now = time.Now
	}
	return &HourlyLimiter{max: maxPerHour, now: now}
}

func (l *HourlyLimiter) prune(now time.Time) {
	cutoff := now.Add(-Window)
	i := 0
	for i < len(l.accepted) && !l.accepted[i].After(cutoff) {
		i++
	}
	l.accepted = l.accepted[i:]
}

// Take grants up to n acceptances and returns how many were granted. A
// limiter with max <= 0 grants everything.
func (l *HourlyLimiter) Take(n int) int {
	if n <= 0 {
		return 0
	}
	now := l.now()
	if l.max <= 0 {
		return n
	}
	l.prune(now)

	granted := min(n, l.max-len(l.accepted))
	for range granted {
		l.accepted = append(l.accepted, now)
	}
	return max(granted, 0)
}

// Count is the number of acceptances in the current window
func (l *HourlyLimiter) Count() int {
	l.prune(l.now())
	return len(l.accepted)
}

// Remaining is how many more acceptances the window allows
func (l *HourlyLimiter) Remaining() int {
	if l.max <= 0 {
		return -1
	}
	return max(l.max-l.Count(), 0)
}

// Exhausted reports whether the cap is reached
func (l *HourlyLimiter) Exhausted() bool {
	return l.max > 0 && l.Count() >= l.max
}

// ResetIn is how long until the oldest acceptance leaves the window and
// frees a slot; zero when a slot is free now.
func (l *HourlyLimiter) ResetIn() time.Duration {
	now := l.now()
	l.prune(now)
	if l.max <= 0 || len(l.accepted) < l.max {
		return 0
	}
	return l.accepted[0].Add(Window).Sub(now)
}

// Reset forgets every acceptance
func (l *HourlyLimiter) Reset() {
	l.accepted = nil
}
