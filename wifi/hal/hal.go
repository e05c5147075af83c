package hal

import "net"

// Interface selects the station or soft-AP network interface.
type Interface uint8

// Network interfaces.
const (
	IfSta Interface = iota // Station
	IfAp                   // Soft access point

	// NumInterfaces is the number of network interfaces.
	NumInterfaces = 2
)

// String returns the interface name.
func (i Interface) String() string {
	switch i {
	case IfSta:
		return "sta"
	case IfAp:
		return "ap"
	default:
		return "unknown"
	}
}

// Mode is the driver operating mode.
type Mode uint8

// Driver modes.
const (
	ModeNull  Mode = iota // Radio off
	ModeSta               // Station only
	ModeAp                // Soft-AP only
	ModeApSta             // Station and soft-AP
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNull:
		return "null"
	case ModeSta:
		return "sta"
	case ModeAp:
		return "ap"
	case ModeApSta:
		return "apsta"
	default:
		return "unknown"
	}
}

// Field sizes of the driver configuration blobs.
const (
	SSIDSize     = 32
	PasswordSize = 64
	MACSize      = 6
)

// MAC is a hardware address.
type MAC [MACSize]byte

// Broadcast is the all-stations address.
var Broadcast = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// String returns the address in colon-separated hex form.
func (m MAC) String() string {
	return net.HardwareAddr(m[:]).String()
}

// IsBroadcast reports whether m is the broadcast address.
func (m MAC) IsBroadcast() bool {
	return m == Broadcast
}

// StaConfig is the driver's station configuration.
type StaConfig struct {
	SSID              [SSIDSize]byte
	Password          [PasswordSize]byte
	BSSID             MAC
	BSSIDSet          bool
	Channel           uint8
	AuthThreshold     uint32 // Weakest accepted auth mode
	ListenInterval    uint16
	ScanMethod        uint32
	FailureRetryCount uint8
}

// ApConfig is the driver's soft-AP configuration.
type ApConfig struct {
	SSID           [SSIDSize]byte
	SSIDLen        uint8
	Password       [PasswordSize]byte
	Channel        uint8
	AuthMode       uint32
	SSIDHidden     bool
	MaxConnection  uint8
	BeaconInterval uint16
}

// ScanType selects active or passive scanning.
type ScanType uint8

// Scan types.
const (
	ScanActive  ScanType = iota // Send probe requests
	ScanPassive                 // Listen for beacons only
)

// ScanParams describes one scan request. Dwell times are per channel, in
// milliseconds.
type ScanParams struct {
	SSID        string // Empty for any
	BSSID       MAC
	BSSIDSet    bool
	Channel     uint8 // Zero for all channels
	ShowHidden  bool
	Type        ScanType
	ActiveMinMS uint32
	ActiveMaxMS uint32
	PassiveMS   uint32
}

// Secondary channel positions reported in [APRecord.Second].
const (
	SecondNone  uint32 = 0
	SecondAbove uint32 = 1
	SecondBelow uint32 = 2
)

// APRecord is one raw scan result.
type APRecord struct {
	SSID     [SSIDSize + 1]byte // NUL-terminated
	BSSID    MAC
	Primary  uint8
	Second   uint32
	RSSI     int8
	AuthMode uint32
}

// PowerSave is the modem power save mode.
type PowerSave uint8

// Power save modes.
const (
	PowerSaveNone PowerSave = iota
	PowerSaveMin
	PowerSaveMax
)

// CountryPolicy selects whether the country is taken from the configuration
// or learned from the connected access point.
type CountryPolicy uint8

// Country policies.
const (
	CountryPolicyAuto CountryPolicy = iota
	CountryPolicyManual
)

// Country is the regulatory configuration.
type Country struct {
	CC         [3]byte // Two letters plus operating class
	StartChan  uint8
	NumChan    uint8
	MaxTxPower int8
	Policy     CountryPolicy
}

// Protocol is a bitmask of 802.11 protocols.
type Protocol uint8

// Protocol bits.
const (
	Protocol11B Protocol = 1 << iota
	Protocol11G
	Protocol11N
	ProtocolLR
)

// RxBuffer is a received frame owned by the driver until released with
// [Driver.FreeRxBuffer].
type RxBuffer struct {
	Data   []byte
	Handle uintptr
}

// Callbacks receives notifications from the driver. Implementations never
// block.
type Callbacks interface {
	// OnReceive delivers a frame. Returning false means the buffer was not
	// retained; it has already been released.
	OnReceive(iface Interface, buf RxBuffer) bool

	// OnTransmitComplete reports the outcome of one submitted frame.
	OnTransmitComplete(iface Interface, ok bool)

	// OnEvent reports a driver event by raw id.
	OnEvent(id int32)
}

// Driver is the radio driver contract.
//
// Methods are called from task context and may block for short periods.
// None of them is called while the exchange layer's critical section is
// held.
type Driver interface {
	// Init installs the callbacks and initializes the radio firmware.
	Init(cb Callbacks) error

	// SetMode sets the operating mode.
	SetMode(m Mode) error

	// Mode returns the operating mode.
	Mode() (Mode, error)

	// Start starts every interface enabled by the mode. Completion is
	// reported through StaStart and ApStart events.
	Start() error

	// Stop stops the radio. Completion is reported through StaStop and
	// ApStop events.
	Stop() error

	// SetStaConfig configures the station interface.
	SetStaConfig(cfg *StaConfig) error

	// SetApConfig configures the soft-AP interface.
	SetApConfig(cfg *ApConfig) error

	// Connect begins association with the configured access point.
	// The outcome is reported through StaConnected or StaDisconnected.
	Connect() error

	// Disconnect drops the association. Completion is reported through
	// StaDisconnected.
	Disconnect() error

	// SetInactiveTime sets the beacon inactivity timeout in seconds.
	SetInactiveTime(iface Interface, seconds uint16) error

	// SetPowerSave sets the modem power save mode.
	SetPowerSave(ps PowerSave) error

	// SetCountry sets the regulatory domain.
	SetCountry(c *Country) error

	// SetProtocol sets the 802.11 protocols of an interface.
	SetProtocol(iface Interface, p Protocol) error

	// BeginScan starts a scan. With block set it returns after the scan
	// completed; otherwise completion is reported through ScanDone.
	BeginScan(params *ScanParams, block bool) error

	// ScanCount returns the number of scan results held by the driver.
	ScanCount() (uint16, error)

	// ScanRecords copies up to len(out) results into out, releasing the
	// driver's result list, and returns the number copied.
	ScanRecords(out []APRecord) (int, error)

	// FreeScanList releases the driver's result list without reading it.
	FreeScanList() error

	// SendFrame submits one frame. The driver copies frame before
	// returning. Completion is reported through OnTransmitComplete.
	SendFrame(iface Interface, frame []byte) error

	// FreeRxBuffer releases a buffer delivered through OnReceive.
	FreeRxBuffer(handle uintptr) error

	// MACAddress returns the hardware address of an interface.
	MACAddress(iface Interface) (MAC, error)
}
