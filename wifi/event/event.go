// Package event multiplexes driver events onto a small number of wait
// points.
//
// The driver reports events by raw id from callback context. The [Registry]
// records each one as a pending bit and wakes whoever waits on that kind.
// Consumers either poll ([Registry.Poll], [Registry.PollAny]) with their own
// [wake.Waker], or block ([Registry.Wait], [Registry.WaitAny],
// [Registry.WaitAll]) until the event arrives or the context is done.
//
// Pending bits are idempotent: an event raised twice before anyone consumes
// it is observed once.
package event

import (
	"math/bits"
	"strings"
)

// Event is one kind of driver event.
type Event uint8

// Driver events, in raw id order.
const (
	WifiReady Event = iota
	ScanDone
	StaStart
	StaStop
	StaConnected
	StaDisconnected
	StaAuthmodeChange
	StaWpsErSuccess
	StaWpsErFailed
	StaWpsErTimeout
	StaWpsErPin
	StaWpsErPbcOverlap
	ApStart
	ApStop
	ApStaconnected
	ApStadisconnected
	ApProbereqrecved
	FtmReport
	StaBssRssiLow
	ActionTxStatus
	RocDone
	StaBeaconTimeout

	// Count is the number of event kinds.
	Count = int(StaBeaconTimeout) + 1
)

var eventNames = [Count]string{
	WifiReady:          "WifiReady",
	ScanDone:           "ScanDone",
	StaStart:           "StaStart",
	StaStop:            "StaStop",
	StaConnected:       "StaConnected",
	StaDisconnected:    "StaDisconnected",
	StaAuthmodeChange:  "StaAuthmodeChange",
	StaWpsErSuccess:    "StaWpsErSuccess",
	StaWpsErFailed:     "StaWpsErFailed",
	StaWpsErTimeout:    "StaWpsErTimeout",
	StaWpsErPin:        "StaWpsErPin",
	StaWpsErPbcOverlap: "StaWpsErPbcOverlap",
	ApStart:            "ApStart",
	ApStop:             "ApStop",
	ApStaconnected:     "ApStaconnected",
	ApStadisconnected:  "ApStadisconnected",
	ApProbereqrecved:   "ApProbereqrecved",
	FtmReport:          "FtmReport",
	StaBssRssiLow:      "StaBssRssiLow",
	ActionTxStatus:     "ActionTxStatus",
	RocDone:            "RocDone",
	StaBeaconTimeout:   "StaBeaconTimeout",
}

// String returns the event name.
func (e Event) String() string {
	if int(e) < Count {
		return eventNames[e]
	}
	return "Unknown"
}

// Valid reports whether e is a known event kind.
func (e Event) Valid() bool {
	return int(e) < Count
}

// FromRaw maps a driver event id to an Event.
func FromRaw(id int32) (Event, bool) {
	if id < 0 || int(id) >= Count {
		return 0, false
	}
	return Event(id), true
}

// Set is a set of event kinds.
type Set uint32

// All contains every event kind.
const All = Set(1<<Count - 1)

// Of returns the set containing the given events.
func Of(events ...Event) Set {
	var s Set
	for _, e := range events {
		s = s.Add(e)
	}
	return s
}

// Add returns s with e included.
func (s Set) Add(e Event) Set {
	if !e.Valid() {
		return s
	}
	return s | 1<<e
}

// Remove returns s with e excluded.
func (s Set) Remove(e Event) Set {
	if !e.Valid() {
		return s
	}
	return s &^ (1 << e)
}

// Contains reports whether e is in s.
func (s Set) Contains(e Event) bool {
	return e.Valid() && s&(1<<e) != 0
}

// Union returns the members of either set.
func (s Set) Union(o Set) Set { return s | o }

// Intersect returns the members of both sets.
func (s Set) Intersect(o Set) Set { return s & o }

// Without returns s with every member of o removed.
func (s Set) Without(o Set) Set { return s &^ o }

// Empty reports whether s has no members.
func (s Set) Empty() bool { return s&All == 0 }

// Len returns the number of members.
func (s Set) Len() int { return bits.OnesCount32(uint32(s & All)) }

// Events returns the members in raw id order.
func (s Set) Events() []Event {
	out := make([]Event, 0, s.Len())
	for rest := uint32(s & All); rest != 0; rest &= rest - 1 {
		out = append(out, Event(bits.TrailingZeros32(rest)))
	}
	return out
}

// String returns the member names joined by "|".
func (s Set) String() string {
	if s.Empty() {
		return "{}"
	}
	var b strings.Builder
	for i, e := range s.Events() {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(e.String())
	}
	return b.String()
}
