package buffer

import "sync/atomic"

// ReleaseFunc returns a receive buffer to the driver.
type ReleaseFunc func(handle uintptr) error

// Packet is a received frame still owned by the driver's buffer pool.
type Packet struct {
	handle   uintptr
	data     []byte
	release  ReleaseFunc
	released atomic.Bool
}

// NewPacket wraps a driver receive buffer. The data slice aliases driver
// memory and is valid until Release.
func NewPacket(handle uintptr, data []byte, release ReleaseFunc) *Packet {
	return &Packet{
		handle:  handle,
		data:    data,
		release: release,
	}
}

// Handle returns the driver's release token.
func (p *Packet) Handle() uintptr { return p.handle }

// Data returns the frame bytes. The slice must not be retained past Release.
func (p *Packet) Data() []byte { return p.data }

// Len returns the frame length in bytes.
func (p *Packet) Len() int { return len(p.data) }

// Release returns the buffer to the driver. Only the first call has an
// effect; later calls return nil.
func (p *Packet) Release() error {
	if !p.released.CompareAndSwap(false, true) {
		return nil
	}
	if p.release == nil {
		return nil
	}
	return p.release(p.handle)
}

// Released reports whether Release has been called.
func (p *Packet) Released() bool {
	return p.released.Load()
}
