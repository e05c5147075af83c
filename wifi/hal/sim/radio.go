package sim

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi/event"
	"github.com/ardnew/softwifi/wifi/hal"
)

// Op names a driver operation for fault injection.
type Op string

// Driver operations.
const (
	OpInit            Op = "init"
	OpSetMode         Op = "set_mode"
	OpMode            Op = "mode"
	OpStart           Op = "start"
	OpStop            Op = "stop"
	OpSetStaConfig    Op = "set_sta_config"
	OpSetApConfig     Op = "set_ap_config"
	OpConnect         Op = "connect"
	OpDisconnect      Op = "disconnect"
	OpSetInactiveTime Op = "set_inactive_time"
	OpSetPowerSave    Op = "set_power_save"
	OpSetCountry      Op = "set_country"
	OpSetProtocol     Op = "set_protocol"
	OpBeginScan       Op = "begin_scan"
	OpScanCount       Op = "scan_count"
	OpScanRecords     Op = "scan_records"
	OpFreeScanList    Op = "free_scan_list"
	OpSendFrame       Op = "send_frame"
	OpMACAddress      Op = "mac_address"
)

// DefaultQueueDepth is the number of callbacks a radio can hold before
// posting blocks.
const DefaultQueueDepth = 64

// irq is one queued callback.
type irq struct {
	at     time.Time
	handle uintptr // Non-zero for received frames
	fn     func(cb hal.Callbacks)
}

// Radio is a simulated driver attached to an [Air]. It implements
// [hal.Driver].
type Radio struct {
	air     *Air
	index   int
	latency time.Duration
	macs    [hal.NumInterfaces]hal.MAC

	mutex       sync.Mutex
	initialized bool
	mode        hal.Mode
	started     bool
	sta         hal.StaConfig
	ap          hal.ApConfig
	associated  *Radio              // Soft-AP this station is associated with
	stations    map[*Radio]struct{} // Stations associated with this soft-AP
	inactive    [hal.NumInterfaces]uint16
	powerSave   hal.PowerSave
	country     hal.Country
	protocols   [hal.NumInterfaces]hal.Protocol
	scanList    []hal.APRecord
	scanHeld    bool
	nextHandle  uintptr
	outstanding map[uintptr]struct{}
	doubleFrees int
	dropped     int
	faults      map[Op]error

	irq       chan irq
	closeCh   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a [Radio].
type Option func(*Radio)

// WithLatency delays every callback by d.
func WithLatency(d time.Duration) Option {
	return func(r *Radio) { r.latency = d }
}

// WithMAC overrides the hardware address of an interface.
func WithMAC(iface hal.Interface, mac hal.MAC) Option {
	return func(r *Radio) {
		if iface < hal.NumInterfaces {
			r.macs[iface] = mac
		}
	}
}

// WithQueueDepth sets the callback queue depth.
func WithQueueDepth(n int) Option {
	return func(r *Radio) {
		if n > 0 {
			r.irq = make(chan irq, n)
		}
	}
}

// New creates a radio attached to air. Interface addresses default to
// locally administered addresses derived from the attach order.
func New(air *Air, opts ...Option) *Radio {
	r := &Radio{
		air:         air,
		stations:    make(map[*Radio]struct{}),
		outstanding: make(map[uintptr]struct{}),
		faults:      make(map[Op]error),
		irq:         make(chan irq, DefaultQueueDepth),
		closeCh:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	r.index = air.attach(r)
	r.macs[hal.IfSta] = hal.MAC{0x02, 'S', 'W', byte(r.index >> 8), byte(r.index), 0x01}
	r.macs[hal.IfAp] = hal.MAC{0x02, 'S', 'W', byte(r.index >> 8), byte(r.index), 0x02}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fail makes every later call of op return err. A nil err clears the
// fault.
func (r *Radio) Fail(op Op, err error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err == nil {
		delete(r.faults, op)
		return
	}
	r.faults[op] = err
}

// check returns the injected fault for op, or CodeWifiNotInit before Init.
// The caller holds the mutex.
func (r *Radio) check(op Op) error {
	if err := r.faults[op]; err != nil {
		return err
	}
	if op != OpInit && !r.initialized {
		return pkg.CodeWifiNotInit
	}
	return nil
}

func enables(m hal.Mode, iface hal.Interface) bool {
	switch iface {
	case hal.IfSta:
		return m == hal.ModeSta || m == hal.ModeApSta
	case hal.IfAp:
		return m == hal.ModeAp || m == hal.ModeApSta
	default:
		return false
	}
}

// post queues fn for the interrupt goroutine. It returns false if the
// radio is closed.
func (r *Radio) post(handle uintptr, fn func(cb hal.Callbacks)) bool {
	select {
	case r.irq <- irq{at: time.Now().Add(r.latency), handle: handle, fn: fn}:
		return true
	case <-r.closeCh:
		return false
	}
}

func (r *Radio) postEvent(e event.Event) {
	r.post(0, func(cb hal.Callbacks) { cb.OnEvent(int32(e)) })
}

// run delivers queued callbacks until the radio is closed.
func (r *Radio) run(cb hal.Callbacks) {
	defer close(r.done)
	for {
		select {
		case <-r.closeCh:
			return
		case q := <-r.irq:
			if d := time.Until(q.at); d > 0 {
				t := time.NewTimer(d)
				select {
				case <-t.C:
				case <-r.closeCh:
					t.Stop()
					r.reclaim(q)
					return
				}
			}
			q.fn(cb)
		}
	}
}

// reclaim forgets the buffer of an undelivered frame.
func (r *Radio) reclaim(q irq) {
	if q.handle == 0 {
		return
	}
	r.mutex.Lock()
	delete(r.outstanding, q.handle)
	r.mutex.Unlock()
}

// Init installs cb, starts the interrupt goroutine and reports WifiReady.
func (r *Radio) Init(cb hal.Callbacks) error {
	r.mutex.Lock()
	if err := r.check(OpInit); err != nil {
		r.mutex.Unlock()
		return err
	}
	if r.initialized {
		r.mutex.Unlock()
		return pkg.CodeWifiInitState
	}
	r.initialized = true
	r.mutex.Unlock()

	go r.run(cb)
	r.postEvent(event.WifiReady)
	pkg.LogDebug(pkg.ComponentSim, "radio initialized", "index", r.index)
	return nil
}

// SetMode sets the operating mode.
func (r *Radio) SetMode(m hal.Mode) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpSetMode); err != nil {
		return err
	}
	if m > hal.ModeApSta {
		return pkg.CodeInvalidArg
	}
	r.mode = m
	return nil
}

// Mode returns the operating mode.
func (r *Radio) Mode() (hal.Mode, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpMode); err != nil {
		return hal.ModeNull, err
	}
	return r.mode, nil
}

// Start starts the interfaces enabled by the mode. Starting a started
// radio reports the start events again.
func (r *Radio) Start() error {
	r.mutex.Lock()
	if err := r.check(OpStart); err != nil {
		r.mutex.Unlock()
		return err
	}
	if r.mode == hal.ModeNull {
		r.mutex.Unlock()
		return pkg.CodeWifiMode
	}
	r.started = true
	mode := r.mode
	r.mutex.Unlock()

	if enables(mode, hal.IfAp) {
		r.postEvent(event.ApStart)
	}
	if enables(mode, hal.IfSta) {
		r.postEvent(event.StaStart)
	}
	pkg.LogDebug(pkg.ComponentSim, "radio started", "index", r.index, "mode", mode)
	return nil
}

// Stop drops every association and stops the radio.
func (r *Radio) Stop() error {
	r.mutex.Lock()
	if err := r.check(OpStop); err != nil {
		r.mutex.Unlock()
		return err
	}
	mode := r.mode
	r.started = false
	ap := r.associated
	r.associated = nil
	stations := r.takeStations()
	r.mutex.Unlock()

	if ap != nil {
		ap.release(r)
		r.postEvent(event.StaDisconnected)
	}
	for _, st := range stations {
		st.kick(r)
		r.postEvent(event.ApStadisconnected)
	}
	if enables(mode, hal.IfSta) {
		r.postEvent(event.StaStop)
	}
	if enables(mode, hal.IfAp) {
		r.postEvent(event.ApStop)
	}
	pkg.LogDebug(pkg.ComponentSim, "radio stopped", "index", r.index)
	return nil
}

// takeStations empties the station set. The caller holds the mutex.
func (r *Radio) takeStations() []*Radio {
	out := make([]*Radio, 0, len(r.stations))
	for st := range r.stations {
		out = append(out, st)
	}
	clear(r.stations)
	return out
}

// SetStaConfig configures the station interface.
func (r *Radio) SetStaConfig(cfg *hal.StaConfig) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpSetStaConfig); err != nil {
		return err
	}
	r.sta = *cfg
	return nil
}

// SetApConfig configures the soft-AP interface.
func (r *Radio) SetApConfig(cfg *hal.ApConfig) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpSetApConfig); err != nil {
		return err
	}
	if cfg.SSIDLen > hal.SSIDSize {
		return pkg.CodeWifiSsid
	}
	r.ap = *cfg
	return nil
}

func cstring(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// Connect associates with the first matching soft-AP on the air. The
// outcome is reported through StaConnected or StaDisconnected. An injected
// connect fault is returned and also reported as StaDisconnected.
func (r *Radio) Connect() error {
	r.mutex.Lock()
	if err := r.faults[OpConnect]; err != nil {
		r.mutex.Unlock()
		r.postEvent(event.StaDisconnected)
		return err
	}
	if err := r.check(OpConnect); err != nil {
		r.mutex.Unlock()
		return err
	}
	switch {
	case !r.started:
		r.mutex.Unlock()
		return pkg.CodeWifiNotStarted
	case !enables(r.mode, hal.IfSta):
		r.mutex.Unlock()
		return pkg.CodeWifiMode
	case r.associated != nil:
		r.mutex.Unlock()
		r.postEvent(event.StaConnected)
		return nil
	}
	cfg := r.sta
	r.mutex.Unlock()

	if len(cstring(cfg.SSID[:])) == 0 {
		r.postEvent(event.StaDisconnected)
		return pkg.CodeWifiSsid
	}

	for _, ap := range r.air.accessPoints(r) {
		if !ap.admit(r, &cfg) {
			continue
		}
		r.mutex.Lock()
		r.associated = ap
		r.mutex.Unlock()
		r.postEvent(event.StaConnected)
		pkg.LogDebug(pkg.ComponentSim, "station associated",
			"sta", r.macs[hal.IfSta],
			"ap", ap.macs[hal.IfAp])
		return nil
	}

	r.postEvent(event.StaDisconnected)
	pkg.LogDebug(pkg.ComponentSim, "no matching access point",
		"ssid", string(cstring(cfg.SSID[:])))
	return nil
}

// admit associates sta with this soft-AP if cfg matches it.
func (r *Radio) admit(sta *Radio, cfg *hal.StaConfig) bool {
	if !r.match(cfg) {
		return false
	}
	r.mutex.Lock()
	if !r.started || len(r.stations) >= int(r.ap.MaxConnection) {
		r.mutex.Unlock()
		return false
	}
	r.stations[sta] = struct{}{}
	r.mutex.Unlock()
	r.postEvent(event.ApStaconnected)
	return true
}

// match reports whether cfg selects this started soft-AP.
func (r *Radio) match(cfg *hal.StaConfig) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.started || !enables(r.mode, hal.IfAp) {
		return false
	}
	if !bytes.Equal(cstring(cfg.SSID[:]), r.ap.SSID[:r.ap.SSIDLen]) {
		return false
	}
	if cfg.BSSIDSet && cfg.BSSID != r.macs[hal.IfAp] {
		return false
	}
	if cfg.Channel != 0 && cfg.Channel != r.ap.Channel {
		return false
	}
	if r.ap.AuthMode < cfg.AuthThreshold {
		return false
	}
	return r.ap.AuthMode == 0 || bytes.Equal(cstring(cfg.Password[:]), cstring(r.ap.Password[:]))
}

// release removes sta from this soft-AP.
func (r *Radio) release(sta *Radio) {
	r.mutex.Lock()
	_, ok := r.stations[sta]
	delete(r.stations, sta)
	r.mutex.Unlock()
	if ok {
		r.postEvent(event.ApStadisconnected)
	}
}

// kick drops the association with ap after the soft-AP stopped.
func (r *Radio) kick(ap *Radio) {
	r.mutex.Lock()
	if r.associated != ap {
		r.mutex.Unlock()
		return
	}
	r.associated = nil
	r.mutex.Unlock()
	r.postEvent(event.StaDisconnected)
}

// Disconnect drops the association.
func (r *Radio) Disconnect() error {
	r.mutex.Lock()
	if err := r.check(OpDisconnect); err != nil {
		r.mutex.Unlock()
		return err
	}
	if !r.started {
		r.mutex.Unlock()
		return pkg.CodeWifiNotStarted
	}
	ap := r.associated
	r.associated = nil
	r.mutex.Unlock()

	if ap == nil {
		return pkg.CodeWifiNotConnect
	}
	ap.release(r)
	r.postEvent(event.StaDisconnected)
	return nil
}

// SetInactiveTime sets the beacon inactivity timeout of an interface.
func (r *Radio) SetInactiveTime(iface hal.Interface, seconds uint16) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpSetInactiveTime); err != nil {
		return err
	}
	if !enables(r.mode, iface) {
		return pkg.CodeWifiIf
	}
	r.inactive[iface] = seconds
	return nil
}

// SetPowerSave sets the modem power save mode.
func (r *Radio) SetPowerSave(ps hal.PowerSave) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpSetPowerSave); err != nil {
		return err
	}
	if ps > hal.PowerSaveMax {
		return pkg.CodeInvalidArg
	}
	r.powerSave = ps
	return nil
}

// SetCountry sets the regulatory domain.
func (r *Radio) SetCountry(c *hal.Country) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpSetCountry); err != nil {
		return err
	}
	if c.NumChan == 0 || c.StartChan == 0 {
		return pkg.CodeInvalidArg
	}
	r.country = *c
	return nil
}

// SetProtocol sets the 802.11 protocols of an interface.
func (r *Radio) SetProtocol(iface hal.Interface, p hal.Protocol) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpSetProtocol); err != nil {
		return err
	}
	if iface >= hal.NumInterfaces {
		return pkg.CodeWifiIf
	}
	if p == 0 {
		return pkg.CodeInvalidArg
	}
	r.protocols[iface] = p
	return nil
}

// BeginScan lists the soft-APs started on the air that match params.
// Active scans are reported to each listed soft-AP as a probe request.
func (r *Radio) BeginScan(params *hal.ScanParams, block bool) error {
	r.mutex.Lock()
	if err := r.check(OpBeginScan); err != nil {
		r.mutex.Unlock()
		return err
	}
	switch {
	case !r.started:
		r.mutex.Unlock()
		return pkg.CodeWifiNotStarted
	case !enables(r.mode, hal.IfSta):
		r.mutex.Unlock()
		return pkg.CodeWifiMode
	}
	r.mutex.Unlock()

	var records []hal.APRecord
	for _, ap := range r.air.accessPoints(r) {
		rec, ok := ap.record(params)
		if !ok {
			continue
		}
		records = append(records, rec)
		if params.Type == hal.ScanActive {
			ap.postEvent(event.ApProbereqrecved)
		}
	}

	r.mutex.Lock()
	r.scanList = records
	r.scanHeld = true
	r.mutex.Unlock()

	pkg.LogDebug(pkg.ComponentSim, "scan finished", "index", r.index, "found", len(records))
	if !block {
		r.postEvent(event.ScanDone)
	}
	return nil
}

// record returns the scan record of this soft-AP if it matches params.
func (r *Radio) record(params *hal.ScanParams) (hal.APRecord, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.started || !enables(r.mode, hal.IfAp) {
		return hal.APRecord{}, false
	}
	ssid := r.ap.SSID[:r.ap.SSIDLen]
	if r.ap.SSIDHidden && !params.ShowHidden {
		return hal.APRecord{}, false
	}
	if params.SSID != "" && params.SSID != string(ssid) {
		return hal.APRecord{}, false
	}
	if params.BSSIDSet && params.BSSID != r.macs[hal.IfAp] {
		return hal.APRecord{}, false
	}
	if params.Channel != 0 && params.Channel != r.ap.Channel {
		return hal.APRecord{}, false
	}

	rec := hal.APRecord{
		BSSID:    r.macs[hal.IfAp],
		Primary:  r.ap.Channel,
		Second:   hal.SecondNone,
		RSSI:     int8(-40 - r.index%40),
		AuthMode: r.ap.AuthMode,
	}
	if !r.ap.SSIDHidden {
		copy(rec.SSID[:], ssid)
	}
	return rec, true
}

// ScanCount returns the number of held scan results.
func (r *Radio) ScanCount() (uint16, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpScanCount); err != nil {
		return 0, err
	}
	return uint16(len(r.scanList)), nil
}

// ScanRecords copies up to len(out) results and releases the list.
func (r *Radio) ScanRecords(out []hal.APRecord) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpScanRecords); err != nil {
		return 0, err
	}
	n := copy(out, r.scanList)
	r.scanList = nil
	r.scanHeld = false
	return n, nil
}

// FreeScanList releases the list without reading it.
func (r *Radio) FreeScanList() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpFreeScanList); err != nil {
		return err
	}
	r.scanList = nil
	r.scanHeld = false
	return nil
}

// SendFrame routes frame over the air and reports the completion. A
// station can only send while associated.
func (r *Radio) SendFrame(iface hal.Interface, frame []byte) error {
	r.mutex.Lock()
	if err := r.check(OpSendFrame); err != nil {
		r.mutex.Unlock()
		return err
	}
	var err error
	switch {
	case !enables(r.mode, iface):
		err = pkg.CodeWifiIf
	case !r.started:
		err = pkg.CodeWifiNotStarted
	case iface == hal.IfSta && r.associated == nil:
		err = pkg.CodeWifiNotConnect
	case len(frame) < EthernetHeaderSize:
		err = pkg.CodeInvalidArg
	}
	r.mutex.Unlock()
	if err != nil {
		return err
	}

	r.air.route(r, frame)
	r.post(0, func(cb hal.Callbacks) { cb.OnTransmitComplete(iface, true) })
	return nil
}

// receive queues frame for delivery on iface. It returns false if the
// interface cannot receive.
func (r *Radio) receive(iface hal.Interface, frame []byte) bool {
	r.mutex.Lock()
	switch {
	case !r.started, !enables(r.mode, iface):
		r.mutex.Unlock()
		return false
	case iface == hal.IfSta && r.associated == nil:
		r.mutex.Unlock()
		return false
	}
	r.nextHandle++
	handle := r.nextHandle
	r.outstanding[handle] = struct{}{}
	r.mutex.Unlock()

	data := append([]byte(nil), frame...)
	ok := r.post(handle, func(cb hal.Callbacks) {
		if !cb.OnReceive(iface, hal.RxBuffer{Data: data, Handle: handle}) {
			r.mutex.Lock()
			r.dropped++
			r.mutex.Unlock()
		}
	})
	if !ok {
		r.reclaim(irq{handle: handle})
	}
	return ok
}

// FreeRxBuffer releases a received buffer. Freeing an unknown handle
// fails with CodeInvalidArg.
func (r *Radio) FreeRxBuffer(handle uintptr) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.outstanding[handle]; !ok {
		r.doubleFrees++
		pkg.LogWarn(pkg.ComponentSim, "free of unknown rx buffer", "handle", handle)
		return pkg.CodeInvalidArg
	}
	delete(r.outstanding, handle)
	return nil
}

// MACAddress returns the hardware address of an interface.
func (r *Radio) MACAddress(iface hal.Interface) (hal.MAC, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if err := r.check(OpMACAddress); err != nil {
		return hal.MAC{}, err
	}
	if iface >= hal.NumInterfaces {
		return hal.MAC{}, pkg.CodeWifiIf
	}
	return r.macs[iface], nil
}

// mac returns the address of iface. Addresses never change after New.
func (r *Radio) mac(iface hal.Interface) hal.MAC {
	return r.macs[iface]
}

func (r *Radio) apStarted() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.started && enables(r.mode, hal.IfAp)
}

// Outstanding returns the number of received buffers not yet freed.
func (r *Radio) Outstanding() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.outstanding)
}

// DoubleFrees returns the number of frees of unknown handles.
func (r *Radio) DoubleFrees() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.doubleFrees
}

// Dropped returns the number of frames the callbacks refused.
func (r *Radio) Dropped() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.dropped
}

// Stations returns the number of stations associated with the soft-AP.
func (r *Radio) Stations() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.stations)
}

// Associated reports whether the station is associated.
func (r *Radio) Associated() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.associated != nil
}

// Country returns the regulatory domain last set.
func (r *Radio) Country() hal.Country {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.country
}

// InactiveTime returns the inactivity timeout of an interface.
func (r *Radio) InactiveTime(iface hal.Interface) uint16 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if iface >= hal.NumInterfaces {
		return 0
	}
	return r.inactive[iface]
}

// Close stops the interrupt goroutine. It reports every received buffer
// still outstanding, an unfreed scan list and any double frees.
func (r *Radio) Close() error {
	r.closeOnce.Do(func() {
		close(r.closeCh)
		r.mutex.Lock()
		initialized := r.initialized
		r.mutex.Unlock()
		if initialized {
			<-r.done
		}
		for {
			select {
			case q := <-r.irq:
				r.reclaim(q)
				continue
			default:
			}
			break
		}
	})

	r.mutex.Lock()
	defer r.mutex.Unlock()

	var result *multierror.Error
	for handle := range r.outstanding {
		result = multierror.Append(result, fmt.Errorf("rx buffer %d not freed", handle))
	}
	if r.scanHeld {
		result = multierror.Append(result, fmt.Errorf("scan list of %d records not freed", len(r.scanList)))
	}
	if r.doubleFrees > 0 {
		result = multierror.Append(result, fmt.Errorf("%d frees of unknown rx buffers", r.doubleFrees))
	}
	return result.ErrorOrNil()
}
