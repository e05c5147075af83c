package buffer

import (
	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi/critical"
)

// Queue is a bounded FIFO of received packets for one interface.
//
// The ring is allocated once at construction. Every method runs inside the
// critical section given to [NewQueue]; callers must not already hold it.
type Queue struct {
	cs    *critical.Section
	ring  []*Packet
	head  int
	count int
}

// NewQueue creates a queue holding at most capacity packets. It panics if
// capacity is not positive.
func NewQueue(cs *critical.Section, capacity int) *Queue {
	if capacity < 1 {
		panic("buffer: queue capacity must be positive")
	}
	return &Queue{
		cs:   cs,
		ring: make([]*Packet, capacity),
	}
}

// Enqueue appends p. It never blocks. If the queue is full it returns
// [pkg.ErrQueueFull] and ownership of p stays with the caller.
func (q *Queue) Enqueue(p *Packet) error {
	var err error
	q.cs.With(func() {
		if q.count == len(q.ring) {
			err = pkg.ErrQueueFull
			return
		}
		q.ring[(q.head+q.count)%len(q.ring)] = p
		q.count++
	})
	return err
}

// Dequeue removes the oldest packet and transfers ownership to the caller.
func (q *Queue) Dequeue() (*Packet, bool) {
	var p *Packet
	q.cs.With(func() {
		p = q.pop()
	})
	return p, p != nil
}

// pop must be called inside the section.
func (q *Queue) pop() *Packet {
	if q.count == 0 {
		return nil
	}
	p := q.ring[q.head]
	q.ring[q.head] = nil
	q.head = (q.head + 1) % len(q.ring)
	q.count--
	return p
}

// IsEmpty reports whether no packet is queued.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Len returns the number of queued packets.
func (q *Queue) Len() int {
	var n int
	q.cs.With(func() { n = q.count })
	return n
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return len(q.ring)
}

// Drain removes every queued packet in FIFO order. The caller owns the
// returned packets and must release them.
func (q *Queue) Drain() []*Packet {
	var out []*Packet
	q.cs.With(func() {
		if q.count == 0 {
			return
		}
		out = make([]*Packet, 0, q.count)
		for p := q.pop(); p != nil; p = q.pop() {
			out = append(out, p)
		}
	})
	return out
}
