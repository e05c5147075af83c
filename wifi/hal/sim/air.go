package sim

import (
	"sync"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi/hal"
)

// EthernetHeaderSize is the minimum frame length the air accepts.
const EthernetHeaderSize = 14

// Air is the medium shared by a set of radios.
type Air struct {
	mutex  sync.RWMutex
	radios []*Radio
}

// NewAir returns an empty medium.
func NewAir() *Air {
	return &Air{}
}

// attach adds r and returns its index.
func (a *Air) attach(r *Radio) int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.radios = append(a.radios, r)
	return len(a.radios) - 1
}

func (a *Air) others(r *Radio) []*Radio {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	out := make([]*Radio, 0, len(a.radios))
	for _, o := range a.radios {
		if o != r {
			out = append(out, o)
		}
	}
	return out
}

// route delivers frame from r to the interfaces addressed by its
// destination MAC and returns the number of deliveries.
func (a *Air) route(r *Radio, frame []byte) int {
	var dst hal.MAC
	copy(dst[:], frame[:hal.MACSize])

	n := 0
	for _, o := range a.others(r) {
		for iface := range hal.Interface(hal.NumInterfaces) {
			if !dst.IsBroadcast() && o.mac(iface) != dst {
				continue
			}
			if o.receive(iface, frame) {
				n++
			}
		}
	}
	if n == 0 {
		pkg.LogDebug(pkg.ComponentSim, "frame not delivered", "dst", dst)
	}
	return n
}

// accessPoints returns the soft-APs currently started on the air.
func (a *Air) accessPoints(r *Radio) []*Radio {
	var out []*Radio
	for _, o := range a.others(r) {
		if o.apStarted() {
			out = append(out, o)
		}
	}
	return out
}
