// Package clock abstracts the current time so date rules can be tested
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time
type Clock interface {
	Now() time.Time
}

// Real is the wall clock in a fixed location
type Real struct {
	loc *time.Location
}

// NewReal returns a wall clock reporting times in loc (local time if nil)
func NewReal(loc *time.Location) *Real {
	if loc == nil {
		loc = time.Local
	}
	return &Real{loc: loc}
}

// Now returns the current time
func (c *Real) Now() time.Time {
	return time.Now().In(c.loc)
}

// Mock is a settable clock for tests
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock returns a clock frozen at t
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

// Now returns the frozen time
func (c *Mock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *Mock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Add advances the clock by d
func (c *Mock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
