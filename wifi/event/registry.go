package event

import (
	"context"
	"math/bits"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi/critical"
	"github.com/ardnew/softwifi/wifi/wake"
)

// Registry holds the pending event set and one waiter slot per event kind.
//
// Pollers must register their waker before testing the pending set; the
// Poll methods do both in that order so a raise that lands between the
// two is never lost.
type Registry struct {
	cs      *critical.Section
	pending Set
	waiters [Count]wake.Slot
}

// NewRegistry creates an empty registry guarded by cs.
func NewRegistry(cs *critical.Section) *Registry {
	return &Registry{cs: cs}
}

// Set marks e pending and wakes its waiter.
func (r *Registry) Set(e Event) {
	r.SetAll(Of(e))
}

// SetAll marks every event in s pending and wakes the waiters of the
// events that were not already pending. Wakers run after the critical
// section is left.
func (r *Registry) SetAll(s Set) {
	s &= All
	if s == 0 {
		return
	}
	var raised Set
	r.cs.With(func() {
		raised = s &^ r.pending
		r.pending |= s
	})
	for rest := uint32(raised); rest != 0; rest &= rest - 1 {
		r.waiters[bits.TrailingZeros32(rest)].Wake()
	}
}

// Clear discards a pending e.
func (r *Registry) Clear(e Event) {
	r.ClearAll(Of(e))
}

// ClearAll discards every pending event in s.
func (r *Registry) ClearAll(s Set) {
	r.cs.With(func() { r.pending &^= s })
}

// TryTake consumes a pending e.
func (r *Registry) TryTake(e Event) bool {
	return !r.TryTakeAny(Of(e)).Empty()
}

// TryTakeAny consumes and returns the pending members of s.
func (r *Registry) TryTakeAny(s Set) Set {
	var got Set
	r.cs.With(func() {
		got = r.pending & s
		r.pending &^= got
	})
	return got
}

// Pending returns a snapshot of the pending set.
func (r *Registry) Pending() Set {
	var s Set
	r.cs.With(func() { s = r.pending })
	return s
}

// Register stores w as the waiter for every event in s.
func (r *Registry) Register(s Set, w wake.Waker) {
	for _, e := range s.Events() {
		r.waiters[e].Register(w)
	}
}

// Poll registers w for e, then consumes e if pending.
func (r *Registry) Poll(e Event, w wake.Waker) bool {
	return !r.PollAny(Of(e), w).Empty()
}

// PollAny registers w for every event in s, then consumes and returns the
// pending members of s. An empty result means w will be woken later.
func (r *Registry) PollAny(s Set, w wake.Waker) Set {
	r.Register(s, w)
	return r.TryTakeAny(s)
}

// Wait blocks until e is raised or ctx is done.
func (r *Registry) Wait(ctx context.Context, e Event) error {
	_, err := r.WaitAny(ctx, Of(e))
	return err
}

// WaitAny blocks until at least one event in s is raised or ctx is done,
// and returns the consumed members. Abandoning the wait leaves the pending
// set untouched.
func (r *Registry) WaitAny(ctx context.Context, s Set) (Set, error) {
	s &= All
	if s.Empty() {
		return 0, pkg.ErrInvalidArgument
	}
	sig := wake.NewSignal()
	for {
		if got := r.PollAny(s, sig); !got.Empty() {
			return got, nil
		}
		select {
		case <-sig.C():
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// WaitAll blocks until every event in s has been raised, consuming each as
// it arrives. Events taken before ctx is done stay consumed.
func (r *Registry) WaitAll(ctx context.Context, s Set) error {
	remaining := s & All
	for !remaining.Empty() {
		got, err := r.WaitAny(ctx, remaining)
		if err != nil {
			return err
		}
		remaining = remaining.Without(got)
		pkg.LogDebug(pkg.ComponentEvent, "wait all progress", "got", got, "remaining", remaining)
	}
	return nil
}
