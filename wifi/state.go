package wifi

import (
	"fmt"

	"github.com/ardnew/softwifi/wifi/event"
)

// State is the logical state of one role (station or soft-AP).
type State uint8

// Role states. The soft-AP role uses only Idle, Starting, Started and
// Stopping.
const (
	StateIdle State = iota
	StateStarting
	StateStarted
	StateConnecting
	StateConnected
	StateDisconnected
	StateStopping
)

// String returns a human-readable state description.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStarting:
		return "Starting"
	case StateStarted:
		return "Started"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	case StateStopping:
		return "Stopping"
	default:
		return fmt.Sprintf("Unknown State (%d)", s)
	}
}

// roleStates holds both role states. It is only accessed inside the
// critical section.
type roleStates struct {
	sta State
	ap  State
}

// apply updates the states for a driver event and reports whether the
// station or soft-AP link state may have changed.
func (r *roleStates) apply(e event.Event) (staLink, apLink bool) {
	switch e {
	case event.StaStart:
		r.sta = StateStarted
		return true, false
	case event.StaConnected:
		r.sta = StateConnected
		return true, false
	case event.StaDisconnected:
		r.sta = StateDisconnected
		return true, false
	case event.StaStop:
		r.sta = StateIdle
		return true, false
	case event.ApStart:
		r.ap = StateStarted
		return false, true
	case event.ApStop:
		r.ap = StateIdle
		return false, true
	}
	return false, false
}

// LinkState is the link status reported to a network stack.
type LinkState uint8

// Link states.
const (
	LinkDown LinkState = iota
	LinkUp
)

// String returns "up" or "down".
func (l LinkState) String() string {
	if l == LinkUp {
		return "up"
	}
	return "down"
}
