// Package critical provides the non-sleeping critical section shared by the
// receive queues, the transmit admission counter, the event registry and the
// controller state.
//
// Driver callbacks run in a context that must never park on a
// scheduler-managed lock, so Section is a spin lock. Bodies passed to
// [Section.With] must be short and must not block, release driver buffers,
// invoke wakers, log, or re-enter the driver.
package critical

import (
	"runtime"
	"sync/atomic"
)

// spinsBeforeYield is the number of failed acquisitions before the spinning
// goroutine yields the processor.
const spinsBeforeYield = 16

// Section is a non-reentrant spin lock. The zero value is unlocked.
type Section struct {
	held atomic.Bool
}

// With runs fn while holding the section.
func (s *Section) With(fn func()) {
	s.acquire()
	defer s.held.Store(false)
	fn()
}

func (s *Section) acquire() {
	for spins := 0; !s.held.CompareAndSwap(false, true); spins++ {
		if spins >= spinsBeforeYield {
			runtime.Gosched()
			spins = 0
		}
	}
}

// Held reports whether some goroutine currently holds the section.
// It is a diagnostic snapshot.
func (s *Section) Held() bool {
	return s.held.Load()
}
