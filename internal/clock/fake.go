package clock

import "time"

// FakeClock is a Clock pinned to a fixed instant. Grace-period and queue
// tests move it forward with Advance, or jump to an absolute day with Set.
// Not safe for concurrent use; tests drive it from a single goroutine.
type FakeClock struct {
	now time.Time
}

var _ Clock = (*FakeClock)(nil)

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *FakeClock) Set(t time.Time) {
	c.now = t.UTC()
}
