package wifi

import (
	"fmt"

	"github.com/ardnew/softwifi/wifi/hal"
	"github.com/ardnew/softwifi/wifi/wake"
)

// Device is the network-stack view of one interface. It hands out
// receive and transmit tokens and reports link state.
type Device struct {
	core  *Core
	iface hal.Interface
}

// Capabilities describes the device to a network stack.
type Capabilities struct {
	MTU          int
	MaxBurstSize int // Zero when unbounded
}

// Interface returns the interface the device is bound to.
func (d *Device) Interface() hal.Interface {
	return d.iface
}

// Receive returns a receive token and a reply token if a frame is queued
// and a transmit grant is available.
func (d *Device) Receive() (*RxToken, *TxToken, bool) {
	if !d.receiveReady() {
		return nil, nil, false
	}
	return &RxToken{dev: d}, &TxToken{dev: d}, true
}

// Transmit returns a transmit token if a grant is available.
func (d *Device) Transmit() (*TxToken, bool) {
	if d.core.closed.Load() {
		return nil, false
	}
	if !d.core.tx.CanSend() {
		warnNoTxToken(d.iface)
		return nil, false
	}
	return &TxToken{dev: d}, true
}

// PollReceive registers w to be woken when a frame arrives or a transmit
// completes, then behaves like Receive.
func (d *Device) PollReceive(w wake.Waker) (*RxToken, *TxToken, bool) {
	if validInterface(d.iface) {
		d.core.rxWakers[d.iface].Register(w)
	}
	d.core.txWaker.Register(w)
	return d.Receive()
}

// PollTransmit registers w to be woken when a transmit completes, then
// behaves like Transmit.
func (d *Device) PollTransmit(w wake.Waker) (*TxToken, bool) {
	d.core.txWaker.Register(w)
	return d.Transmit()
}

// LinkState registers w (if not nil) to be woken on link changes and
// returns the current link state. A station link is up while connected;
// a soft-AP link is up while started.
func (d *Device) LinkState(w wake.Waker) LinkState {
	if !validInterface(d.iface) {
		return LinkDown
	}
	d.core.linkWakers[d.iface].Register(w)

	r := d.core.roleStates()
	switch {
	case d.iface == hal.IfSta && r.sta == StateConnected:
		return LinkUp
	case d.iface == hal.IfAp && r.ap == StateStarted:
		return LinkUp
	default:
		return LinkDown
	}
}

// MACAddress returns the hardware address of the interface.
func (d *Device) MACAddress() (hal.MAC, error) {
	mac, err := d.core.driver.MACAddress(d.iface)
	if err != nil {
		return hal.MAC{}, fmt.Errorf("mac address: %w", err)
	}
	return mac, nil
}

// Capabilities returns the MTU and burst limit.
func (d *Device) Capabilities() Capabilities {
	return Capabilities{
		MTU:          d.core.tuning.MTU,
		MaxBurstSize: d.core.tuning.MaxBurstSize,
	}
}

func (d *Device) receiveReady() bool {
	c := d.core
	if c.closed.Load() || !validInterface(d.iface) {
		return false
	}
	return !c.rx[d.iface].IsEmpty() && c.tx.CanSend()
}
