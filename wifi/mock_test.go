package wifi

import (
	"sync"

	"github.com/ardnew/softwifi/wifi/event"
	"github.com/ardnew/softwifi/wifi/hal"
)

// mockDriver implements hal.Driver for testing.
type mockDriver struct {
	mutex sync.Mutex
	cb    hal.Callbacks

	// Injected errors by operation name
	errs map[string]error

	mode      hal.Mode
	staConfig *hal.StaConfig
	apConfig  *hal.ApConfig
	inactive  map[hal.Interface]uint16
	powerSave hal.PowerSave
	country   hal.Country
	protocols map[hal.Interface]hal.Protocol
	macs      map[hal.Interface]hal.MAC

	scanParams *hal.ScanParams
	scanBlock  bool
	records    []hal.APRecord

	sent  map[hal.Interface][][]byte
	freed map[uintptr]int

	calls map[string]int

	// Hooks run after the command returns its result, outside the mutex.
	onStart      func()
	onStop       func()
	onConnect    func()
	onDisconnect func()
	onScan       func()
}

func newMockDriver() *mockDriver {
	return &mockDriver{
		errs:      make(map[string]error),
		inactive:  make(map[hal.Interface]uint16),
		protocols: make(map[hal.Interface]hal.Protocol),
		macs: map[hal.Interface]hal.MAC{
			hal.IfSta: {0x02, 0, 0, 0, 0, 0x01},
			hal.IfAp:  {0x02, 0, 0, 0, 0, 0x02},
		},
		sent:  make(map[hal.Interface][][]byte),
		freed: make(map[uintptr]int),
		calls: make(map[string]int),
	}
}

// record counts a call and returns the injected error for op.
func (m *mockDriver) record(op string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.calls[op]++
	return m.errs[op]
}

func (m *mockDriver) setErr(op string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.errs[op] = err
}

func (m *mockDriver) count(op string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.calls[op]
}

func (m *mockDriver) freedCount(handle uintptr) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.freed[handle]
}

func (m *mockDriver) sentFrames(iface hal.Interface) [][]byte {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([][]byte(nil), m.sent[iface]...)
}

func (m *mockDriver) raise(e event.Event) {
	m.cb.OnEvent(int32(e))
}

func (m *mockDriver) deliver(iface hal.Interface, handle uintptr, data []byte) bool {
	return m.cb.OnReceive(iface, hal.RxBuffer{Data: data, Handle: handle})
}

func runHook(hook func()) {
	if hook != nil {
		hook()
	}
}

func (m *mockDriver) Init(cb hal.Callbacks) error {
	if err := m.record("init"); err != nil {
		return err
	}
	m.cb = cb
	return nil
}

func (m *mockDriver) SetMode(mode hal.Mode) error {
	if err := m.record("set_mode"); err != nil {
		return err
	}
	m.mutex.Lock()
	m.mode = mode
	m.mutex.Unlock()
	return nil
}

func (m *mockDriver) Mode() (hal.Mode, error) {
	if err := m.record("mode"); err != nil {
		return hal.ModeNull, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.mode, nil
}

func (m *mockDriver) Start() error {
	err := m.record("start")
	if err == nil {
		runHook(m.onStart)
	}
	return err
}

func (m *mockDriver) Stop() error {
	err := m.record("stop")
	if err == nil {
		runHook(m.onStop)
	}
	return err
}

func (m *mockDriver) SetStaConfig(cfg *hal.StaConfig) error {
	if err := m.record("set_sta_config"); err != nil {
		return err
	}
	c := *cfg
	m.mutex.Lock()
	m.staConfig = &c
	m.mutex.Unlock()
	return nil
}

func (m *mockDriver) SetApConfig(cfg *hal.ApConfig) error {
	if err := m.record("set_ap_config"); err != nil {
		return err
	}
	c := *cfg
	m.mutex.Lock()
	m.apConfig = &c
	m.mutex.Unlock()
	return nil
}

func (m *mockDriver) Connect() error {
	err := m.record("connect")
	runHook(m.onConnect)
	return err
}

func (m *mockDriver) Disconnect() error {
	err := m.record("disconnect")
	if err == nil {
		runHook(m.onDisconnect)
	}
	return err
}

func (m *mockDriver) SetInactiveTime(iface hal.Interface, seconds uint16) error {
	if err := m.record("set_inactive_time"); err != nil {
		return err
	}
	m.mutex.Lock()
	m.inactive[iface] = seconds
	m.mutex.Unlock()
	return nil
}

func (m *mockDriver) SetPowerSave(ps hal.PowerSave) error {
	if err := m.record("set_power_save"); err != nil {
		return err
	}
	m.mutex.Lock()
	m.powerSave = ps
	m.mutex.Unlock()
	return nil
}

func (m *mockDriver) SetCountry(c *hal.Country) error {
	if err := m.record("set_country"); err != nil {
		return err
	}
	m.mutex.Lock()
	m.country = *c
	m.mutex.Unlock()
	return nil
}

func (m *mockDriver) SetProtocol(iface hal.Interface, p hal.Protocol) error {
	if err := m.record("set_protocol"); err != nil {
		return err
	}
	m.mutex.Lock()
	m.protocols[iface] = p
	m.mutex.Unlock()
	return nil
}

func (m *mockDriver) BeginScan(params *hal.ScanParams, block bool) error {
	if err := m.record("begin_scan"); err != nil {
		return err
	}
	p := *params
	m.mutex.Lock()
	m.scanParams = &p
	m.scanBlock = block
	m.mutex.Unlock()
	runHook(m.onScan)
	return nil
}

func (m *mockDriver) ScanCount() (uint16, error) {
	if err := m.record("scan_count"); err != nil {
		return 0, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return uint16(len(m.records)), nil
}

func (m *mockDriver) ScanRecords(out []hal.APRecord) (int, error) {
	if err := m.record("scan_records"); err != nil {
		return 0, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return copy(out, m.records), nil
}

func (m *mockDriver) FreeScanList() error {
	return m.record("free_scan_list")
}

func (m *mockDriver) SendFrame(iface hal.Interface, frame []byte) error {
	if err := m.record("send_frame"); err != nil {
		return err
	}
	m.mutex.Lock()
	m.sent[iface] = append(m.sent[iface], append([]byte(nil), frame...))
	m.mutex.Unlock()
	return nil
}

func (m *mockDriver) FreeRxBuffer(handle uintptr) error {
	err := m.record("free_rx_buffer")
	m.mutex.Lock()
	m.freed[handle]++
	m.mutex.Unlock()
	return err
}

func (m *mockDriver) MACAddress(iface hal.Interface) (hal.MAC, error) {
	if err := m.record("mac_address"); err != nil {
		return hal.MAC{}, err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.macs[iface], nil
}
