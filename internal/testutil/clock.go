package testutil

import (
	"strconv"
	"sync"
	"time"
)

// Epoch is the first instant a FakeClock reports.
var Epoch = time.Date(2021, 11, 24, 15, 31, 33, 0, time.UTC)

// FakeClock is a wall clock for tests that advances by a fixed step on
// every call to Now.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFakeClock creates a clock starting at Epoch that advances one second
// per reading.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: Epoch, step: time.Second}
}

// Now returns the current instant and advances the clock by one step.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the next instant Now will report without advancing.
func (c *FakeClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SetStep changes how far each reading advances the clock.
func (c *FakeClock) SetStep(step time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = step
}

// Reset moves the clock back to Epoch.
func (c *FakeClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = Epoch
}

// FixedIDs hands out run ids from a fixed list so that traces and ledgers
// are reproducible. After the list is used up it returns "run-{n}".
type FixedIDs struct {
	mu   sync.Mutex
	ids  []string
	next int
}

func NewFixedIDs(ids ...string) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// NewID returns the next id.
func (g *FixedIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	if g.next <= len(g.ids) {
		return g.ids[g.next-1]
	}
	return "run-" + strconv.Itoa(g.next)
}
