package wifi

import (
	"fmt"
	"sync/atomic"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi/hal"
)

// RxToken grants one dequeue from a device's receive queue.
// A token may be consumed once.
type RxToken struct {
	dev  *Device
	used atomic.Bool
}

// Consume dequeues one frame, passes it to fn and then releases the
// frame to the driver. The frame must not be retained after fn returns.
// If another consumer emptied the queue first, Consume returns
// [pkg.ErrQueueEmpty] without calling fn.
func (t *RxToken) Consume(fn func(frame []byte) error) error {
	if !t.used.CompareAndSwap(false, true) {
		return pkg.ErrTokenConsumed
	}
	c := t.dev.core
	if c.closed.Load() {
		return pkg.ErrClosed
	}

	p, ok := c.rx[t.dev.iface].Dequeue()
	if !ok {
		return pkg.ErrQueueEmpty
	}
	defer func() {
		if err := p.Release(); err != nil {
			pkg.LogWarn(pkg.ComponentQueue, "failed to release rx buffer",
				"iface", t.dev.iface,
				"error", err)
		}
	}()

	data := p.Data()
	if c.tuning.DumpPackets {
		dumpFrame("rx", t.dev.iface, data)
	}
	return fn(data)
}

// TxToken grants one frame submission on a device.
// A token may be consumed once.
type TxToken struct {
	dev  *Device
	used atomic.Bool
}

// Consume takes a transmit grant, lets fn fill an n-byte frame and submits
// it to the driver. The grant is returned if fn or the submission fails;
// otherwise the driver's completion returns it.
func (t *TxToken) Consume(n int, fn func(frame []byte) error) error {
	if !t.used.CompareAndSwap(false, true) {
		return pkg.ErrTokenConsumed
	}
	c := t.dev.core
	if n < 0 || n > len(c.scratch) {
		return fmt.Errorf("%w: frame length %d outside [0, %d]", pkg.ErrInvalidArgument, n, len(c.scratch))
	}
	if c.closed.Load() {
		return pkg.ErrClosed
	}
	if !c.tx.Grant() {
		warnNoTxToken(t.dev.iface)
		return pkg.ErrNoTxCapacity
	}

	c.txMutex.Lock()
	defer c.txMutex.Unlock()

	frame := c.scratch[:n]
	if err := fn(frame); err != nil {
		c.tx.Complete()
		return err
	}
	if c.tuning.DumpPackets {
		dumpFrame("tx", t.dev.iface, frame)
	}
	if err := c.driver.SendFrame(t.dev.iface, frame); err != nil {
		c.tx.Complete()
		pkg.LogWarn(pkg.ComponentDriver, "send frame failed",
			"iface", t.dev.iface,
			"len", n,
			"error", err)
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

func warnNoTxToken(iface hal.Interface) {
	pkg.LogWarn(pkg.ComponentAdmission, "no tx token available", "iface", iface)
}
