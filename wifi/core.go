package wifi

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/pkg/config"
	"github.com/ardnew/softwifi/wifi/admission"
	"github.com/ardnew/softwifi/wifi/buffer"
	"github.com/ardnew/softwifi/wifi/critical"
	"github.com/ardnew/softwifi/wifi/event"
	"github.com/ardnew/softwifi/wifi/hal"
	"github.com/ardnew/softwifi/wifi/wake"
)

// Core is the exchange state shared by the driver callbacks, the devices
// and the controller. Creating a Core initializes the driver; a Core is
// the proof that initialization succeeded.
type Core struct {
	driver hal.Driver
	tuning config.Tuning

	// cs guards the queues, the admission counter, the event registry and
	// the role states.
	cs     critical.Section
	rx     [hal.NumInterfaces]*buffer.Queue
	tx     *admission.Counter
	events *event.Registry
	roles  roleStates

	// Consumer wakers
	rxWakers   [hal.NumInterfaces]wake.Slot
	linkWakers [hal.NumInterfaces]wake.Slot
	txWaker    wake.Slot

	// Transmit scratch buffer, serialized by txMutex. txMutex is never
	// taken in callback context.
	scratch []byte
	txMutex sync.Mutex

	closed atomic.Bool
}

// Option configures a Core.
type Option func(*Core)

// WithTuning replaces the default tuning.
func WithTuning(t config.Tuning) Option {
	return func(c *Core) {
		c.tuning = t
	}
}

// New creates a Core bound to d and initializes the driver.
func New(d hal.Driver, opts ...Option) (*Core, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil driver", pkg.ErrInvalidArgument)
	}

	c := &Core{
		driver: d,
		tuning: config.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.tuning.Validate(); err != nil {
		return nil, err
	}

	for i := range c.rx {
		c.rx[i] = buffer.NewQueue(&c.cs, c.tuning.RxQueueSize)
	}
	c.tx = admission.New(&c.cs, c.tuning.TxQueueSize)
	c.events = event.NewRegistry(&c.cs)
	c.scratch = make([]byte, c.tuning.FrameSize())

	if err := d.Init(callbacks{c}); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	pkg.LogDebug(pkg.ComponentCore, "driver initialized",
		"rx_queue_size", c.tuning.RxQueueSize,
		"tx_queue_size", c.tuning.TxQueueSize,
		"frame_size", len(c.scratch))
	return c, nil
}

// Tuning returns the tuning the core was built with.
func (c *Core) Tuning() config.Tuning {
	return c.tuning
}

// Device returns the network device for iface.
func (c *Core) Device(iface hal.Interface) *Device {
	return &Device{core: c, iface: iface}
}

// Events returns the event registry.
func (c *Core) Events() *event.Registry {
	return c.events
}

// InFlight returns the number of transmit frames awaiting completion.
func (c *Core) InFlight() int {
	return c.tx.InFlight()
}

// Pending returns the number of received frames queued for iface.
func (c *Core) Pending(iface hal.Interface) int {
	if !validInterface(iface) {
		return 0
	}
	return c.rx[iface].Len()
}

// Flush releases every frame queued for iface.
func (c *Core) Flush(iface hal.Interface) error {
	if !validInterface(iface) {
		return fmt.Errorf("%w: interface %d", pkg.ErrInvalidArgument, iface)
	}
	return releaseAll(c.rx[iface].Drain())
}

// Close stops accepting frames and releases everything still queued.
// Later calls return nil.
func (c *Core) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var result *multierror.Error
	for i := range c.rx {
		if err := c.Flush(hal.Interface(i)); err != nil {
			result = multierror.Append(result, err)
		}
	}
	pkg.LogDebug(pkg.ComponentCore, "core closed")
	return result.ErrorOrNil()
}

// IsClosed reports whether Close has been called.
func (c *Core) IsClosed() bool {
	return c.closed.Load()
}

func (c *Core) roleStates() roleStates {
	var r roleStates
	c.cs.With(func() { r = c.roles })
	return r
}

// setRoles sets the state of each role enabled by m.
func (c *Core) setRoles(m Mode, s State) {
	c.cs.With(func() {
		if m.IsSta() {
			c.roles.sta = s
		}
		if m.IsAp() {
			c.roles.ap = s
		}
	})
}

func (c *Core) restoreRoles(r roleStates) {
	c.cs.With(func() { c.roles = r })
}

// releaseAll releases packets outside the critical section.
func releaseAll(packets []*buffer.Packet) error {
	var result *multierror.Error
	for _, p := range packets {
		if err := p.Release(); err != nil {
			result = multierror.Append(result, fmt.Errorf("release rx buffer %#x: %w", p.Handle(), err))
		}
	}
	return result.ErrorOrNil()
}

func validInterface(iface hal.Interface) bool {
	return int(iface) < hal.NumInterfaces
}

// callbacks adapts the Core to the driver callback contract without
// exporting the callback methods on Core.
type callbacks struct {
	c *Core
}

func (cb callbacks) OnReceive(iface hal.Interface, buf hal.RxBuffer) bool {
	c := cb.c
	p := buffer.NewPacket(buf.Handle, buf.Data, c.driver.FreeRxBuffer)

	if c.closed.Load() || !validInterface(iface) {
		releaseDropped(p, iface, "not accepting")
		return false
	}

	if err := c.rx[iface].Enqueue(p); err != nil {
		releaseDropped(p, iface, "rx queue full")
		return false
	}
	if c.closed.Load() {
		// Close raced the enqueue; nobody will consume the queue again.
		if err := c.Flush(iface); err != nil {
			pkg.LogWarn(pkg.ComponentQueue, "flush after close", "iface", iface, "error", err)
		}
		return true
	}
	c.rxWakers[iface].Wake()
	return true
}

func releaseDropped(p *buffer.Packet, iface hal.Interface, reason string) {
	pkg.LogDebug(pkg.ComponentQueue, reason, "iface", iface, "len", p.Len())
	if err := p.Release(); err != nil {
		pkg.LogWarn(pkg.ComponentQueue, "failed to release dropped rx buffer",
			"iface", iface,
			"error", err)
	}
}

func (cb callbacks) OnTransmitComplete(iface hal.Interface, ok bool) {
	c := cb.c
	c.tx.Complete()
	if !ok {
		pkg.LogDebug(pkg.ComponentAdmission, "transmit failed", "iface", iface)
	}
	c.txWaker.Wake()
}

func (cb callbacks) OnEvent(id int32) {
	c := cb.c
	e, ok := event.FromRaw(id)
	if !ok {
		pkg.LogWarn(pkg.ComponentEvent, "unknown driver event", "id", id)
		return
	}

	var staLink, apLink bool
	c.cs.With(func() {
		staLink, apLink = c.roles.apply(e)
	})
	c.events.Set(e)

	if staLink {
		c.linkWakers[hal.IfSta].Wake()
	}
	if apLink {
		c.linkWakers[hal.IfAp].Wake()
	}
	pkg.LogDebug(pkg.ComponentEvent, "driver event", "event", e)
}
