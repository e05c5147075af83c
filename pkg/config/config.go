package config

import (
	"errors"
	"fmt"
	"strings"
)

// Power save modes accepted by [Tuning.PowerSave].
const (
	PowerSaveNone = "none"
	PowerSaveMin  = "min"
	PowerSaveMax  = "max"
)

// Scan methods accepted by [Tuning.ScanMethod].
const (
	ScanMethodFast    uint32 = 0 // Stop at the first matching access point
	ScanMethodAllChan uint32 = 1 // Scan every channel and choose the best
)

// Bounds for the bounded resources.
const (
	MaxQueueSize = 64
	MaxMTU       = 2304
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid tuning")

// Tuning holds build-time and boot-time parameters of the exchange layer.
type Tuning struct {
	// RxQueueSize is the capacity of each per-interface receive queue.
	RxQueueSize int `toml:"rx_queue_size" yaml:"rx_queue_size"`

	// TxQueueSize is the transmit in-flight limit shared by both interfaces.
	TxQueueSize int `toml:"tx_queue_size" yaml:"tx_queue_size"`

	// MTU is the IP MTU; the transmit scratch buffer is MTU plus the
	// 18-byte link header.
	MTU int `toml:"mtu" yaml:"mtu"`

	// MaxBurstSize is reported to the network stack. Zero means unset.
	MaxBurstSize int `toml:"max_burst_size" yaml:"max_burst_size"`

	// BeaconTimeout is the station inactive time in seconds.
	BeaconTimeout uint16 `toml:"beacon_timeout" yaml:"beacon_timeout"`

	// APBeaconTimeout is the soft-AP inactive time in seconds.
	APBeaconTimeout uint16 `toml:"ap_beacon_timeout" yaml:"ap_beacon_timeout"`

	// CountryCode is the two letter regulatory country.
	CountryCode string `toml:"country_code" yaml:"country_code"`

	// CountryOperatingClass is the third byte of the country string.
	CountryOperatingClass uint8 `toml:"country_code_operating_class" yaml:"country_code_operating_class"`

	ListenInterval    uint16 `toml:"listen_interval" yaml:"listen_interval"`
	ScanMethod        uint32 `toml:"scan_method" yaml:"scan_method"`
	FailureRetryCount uint8  `toml:"failure_retry_cnt" yaml:"failure_retry_cnt"`

	// PowerSave is one of "none", "min" or "max".
	PowerSave string `toml:"power_save" yaml:"power_save"`

	// DumpPackets logs every frame at debug level.
	DumpPackets bool `toml:"dump_packets" yaml:"dump_packets"`
}

// Default returns the compiled-in tuning.
func Default() Tuning {
	return Tuning{
		RxQueueSize:           5,
		TxQueueSize:           3,
		MTU:                   1492,
		MaxBurstSize:          0,
		BeaconTimeout:         6,
		APBeaconTimeout:       300,
		CountryCode:           "CN",
		CountryOperatingClass: 0,
		ListenInterval:        3,
		ScanMethod:            ScanMethodFast,
		FailureRetryCount:     1,
		PowerSave:             PowerSaveNone,
		DumpPackets:           false,
	}
}

// FrameSize returns the size of the transmit scratch buffer.
func (t Tuning) FrameSize() int {
	return t.MTU + 18
}

// Validate checks every field and returns the first violation.
func (t Tuning) Validate() error {
	if t.RxQueueSize < 1 || t.RxQueueSize > MaxQueueSize {
		return fmt.Errorf("%w: rx_queue_size %d outside [1, %d]", ErrInvalid, t.RxQueueSize, MaxQueueSize)
	}
	if t.TxQueueSize < 1 || t.TxQueueSize > MaxQueueSize {
		return fmt.Errorf("%w: tx_queue_size %d outside [1, %d]", ErrInvalid, t.TxQueueSize, MaxQueueSize)
	}
	if t.MTU < 1 || t.MTU > MaxMTU {
		return fmt.Errorf("%w: mtu %d outside [1, %d]", ErrInvalid, t.MTU, MaxMTU)
	}
	if t.MaxBurstSize < 0 {
		return fmt.Errorf("%w: max_burst_size %d is negative", ErrInvalid, t.MaxBurstSize)
	}
	if len(t.CountryCode) != 2 {
		return fmt.Errorf("%w: country_code %q must be two letters", ErrInvalid, t.CountryCode)
	}
	if t.ListenInterval == 0 {
		return fmt.Errorf("%w: listen_interval must be positive", ErrInvalid)
	}
	if t.ScanMethod != ScanMethodFast && t.ScanMethod != ScanMethodAllChan {
		return fmt.Errorf("%w: scan_method %d", ErrInvalid, t.ScanMethod)
	}
	switch t.PowerSave {
	case PowerSaveNone, PowerSaveMin, PowerSaveMax:
	default:
		return fmt.Errorf("%w: power_save %q, must be one of none, min, max", ErrInvalid, t.PowerSave)
	}
	return nil
}

func (t *Tuning) normalize() {
	t.CountryCode = strings.ToUpper(strings.TrimSpace(t.CountryCode))
	t.PowerSave = strings.ToLower(strings.TrimSpace(t.PowerSave))
}
