// Package wake provides resumption handles for waiting consumers.
//
// A [Waker] is the handle a waiter leaves behind; the producer (usually a
// driver callback) invokes it after the condition of interest became true.
// A [Slot] stores at most one waker per event kind; re-registration
// replaces the previous waker, so only the most recent waiter per slot is
// woken.
package wake

import "sync/atomic"

// Waker resumes a waiting consumer. Wake must not block and may be called
// any number of times.
type Waker interface {
	Wake()
}

// Func adapts an ordinary function to the [Waker] interface.
type Func func()

// Wake calls f.
func (f Func) Wake() { f() }

// Signal is a channel-backed waker for goroutines that park until woken.
// Wakes that arrive while nobody is parked are coalesced into one.
type Signal struct {
	ch chan struct{}
}

// NewSignal returns a ready-to-use signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Wake marks the signal ready without blocking.
func (s *Signal) Wake() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// C returns the channel that becomes readable after Wake.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}

// Slot holds the most recently registered waker.
// The zero value is empty and ready to use.
type Slot struct {
	w atomic.Pointer[holder]
}

type holder struct {
	w Waker
}

// Register stores w, replacing any earlier registration.
func (s *Slot) Register(w Waker) {
	if w == nil {
		return
	}
	s.w.Store(&holder{w: w})
}

// Wake invokes the registered waker, if any. The registration stays in
// place so a spurious wake is harmless.
func (s *Slot) Wake() {
	if h := s.w.Load(); h != nil {
		h.w.Wake()
	}
}

// Take removes and returns the registered waker, or nil.
func (s *Slot) Take() Waker {
	if h := s.w.Swap(nil); h != nil {
		return h.w
	}
	return nil
}

// Registered reports whether a waker is stored.
func (s *Slot) Registered() bool {
	return s.w.Load() != nil
}
