// Package admission bounds the number of transmit frames in flight at the
// radio.
//
// A grant is taken before a frame is handed to the driver and returned when
// the driver reports the transmit as complete (successfully or not), or when
// the submission itself fails.
package admission

import (
	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi/critical"
)

// Counter is a saturating in-flight counter with a fixed capacity.
type Counter struct {
	cs       *critical.Section
	capacity int
	inFlight int
}

// New creates a counter admitting at most capacity frames. It panics if
// capacity is not positive.
func New(cs *critical.Section, capacity int) *Counter {
	if capacity < 1 {
		panic("admission: capacity must be positive")
	}
	return &Counter{cs: cs, capacity: capacity}
}

// CanSend reports whether a grant would currently succeed.
func (c *Counter) CanSend() bool {
	var ok bool
	c.cs.With(func() { ok = c.inFlight < c.capacity })
	return ok
}

// Grant takes one slot if one is free.
func (c *Counter) Grant() bool {
	var ok bool
	c.cs.With(func() {
		if c.inFlight < c.capacity {
			c.inFlight++
			ok = true
		}
	})
	return ok
}

// Complete returns one slot. Completions with nothing in flight are
// ignored and logged.
func (c *Counter) Complete() {
	var spurious bool
	c.cs.With(func() {
		if c.inFlight == 0 {
			spurious = true
			return
		}
		c.inFlight--
	})
	if spurious {
		pkg.LogWarn(pkg.ComponentAdmission, "transmit completion with nothing in flight")
	}
}

// InFlight returns the number of outstanding grants.
func (c *Counter) InFlight() int {
	var n int
	c.cs.With(func() { n = c.inFlight })
	return n
}

// Cap returns the capacity.
func (c *Counter) Cap() int {
	return c.capacity
}
