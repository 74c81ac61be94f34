// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync"
	"time"
)

// StepClock is a fake clock for tests. Every call to Now advances it by a
// fixed step, so measured durations are exact multiples of that step.
//
// Safe for concurrent use.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	ticks int64
}

// NewStepClock creates a clock whose first reading is a fixed epoch.
func NewStepClock(step time.Duration) *StepClock {
	return &StepClock{start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

// Now returns the current reading and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.ticks) * c.step)
	c.ticks++
	return t
}

// Ticks returns how many times Now has been called.
func (c *StepClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock to its epoch.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
