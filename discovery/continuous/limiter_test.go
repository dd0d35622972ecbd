package continuous

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestHourlyLimiterCapsAtMax(t *testing.T) {
	clock := newTestClock()
	l := NewHourlyLimiter(100, clock.Now)

	assert.Equal(t, 98, l.Take(98))
	clock.Advance(10 * time.Minute)

	// 5 new prospects with 98 already accepted this hour: only 2 get in
	assert.Equal(t, 2, l.Take(5))
	assert.Equal(t, 100, l.Count())
	assert.Equal(t, 0, l.Remaining())
	assert.True(t, l.Exhausted())
	assert.Equal(t, 50*time.Minute, l.ResetIn())
	assert.Equal(t, 0, l.Take(1))
}

func TestHourlyLimiterRollingWindow(t *testing.T) {
	clock := newTestClock()
	l := NewHourlyLimiter(3, clock.Now)

	l.Take(2)
	clock.Advance(30 * time.Minute)
	l.Take(1)
	assert.True(t, l.Exhausted())

	// the first two leave the window exactly one hour after they entered
	clock.Advance(30 * time.Minute)
	assert.Equal(t, 1, l.Count())
	assert.Equal(t, 2, l.Take(5))
	assert.Equal(t, 30*time.Minute, l.ResetIn())
}

func TestHourlyLimiterNeverExceedsCapInAnyHour(t *testing.T) {
	clock := newTestClock()
	l := NewHourlyLimiter(10, clock.Now)

	var log []time.Time
	for range 200 {
		granted := l.Take(3)
		for range granted {
			log = append(log, clock.Now())
		}
		clock.Advance(7 * time.Minute)
	}

	for i, start := range log {
		end := start.Add(Window)
		n := 0
		for _, at := range log[i:] {
			if at.Before(end) {
				n++
			}
		}
		assert.LessOrEqual(t, n, 10, "window starting %s", start)
	}
}

func TestHourlyLimiterUnlimited(t *testing.T) {
	l := NewHourlyLimiter(0, nil)

	assert.Equal(t, 1000, l.Take(1000))
	assert.False(t, l.Exhausted())
	assert.Equal(t, -1, l.Remaining())
	assert.Zero(t, l.ResetIn())
}

func TestHourlyLimiterReset(t *testing.T) {
	l := NewHourlyLimiter(2, nil)
	l.Take(2)
	l.Reset()
	assert.Zero(t, l.Count())
	assert.Equal(t, 2, l.Remaining())
}
