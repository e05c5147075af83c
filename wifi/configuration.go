package wifi

import (
	"fmt"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi/hal"
)

// Mode is the set of roles a configuration enables.
type Mode uint8

// Modes.
const (
	ModeSta   Mode = iota + 1 // Station only
	ModeAp                    // Soft-AP only
	ModeApSta                 // Station and soft-AP
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
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

// IsSta reports whether the mode runs the station role.
func (m Mode) IsSta() bool { return m == ModeSta || m == ModeApSta }

// IsAp reports whether the mode runs the soft-AP role.
func (m Mode) IsAp() bool { return m == ModeAp || m == ModeApSta }

// halMode converts a Mode to the driver mode.
func (m Mode) halMode() hal.Mode {
	switch m {
	case ModeSta:
		return hal.ModeSta
	case ModeAp:
		return hal.ModeAp
	case ModeApSta:
		return hal.ModeApSta
	default:
		return hal.ModeNull
	}
}

// halModeToMode converts a driver mode. ModeNull has no equivalent.
func halModeToMode(m hal.Mode) (Mode, error) {
	switch m {
	case hal.ModeSta:
		return ModeSta, nil
	case hal.ModeAp:
		return ModeAp, nil
	case hal.ModeApSta:
		return ModeApSta, nil
	default:
		return 0, pkg.ErrUnknownMode
	}
}

// AuthMethod is the authentication method of a network.
type AuthMethod uint8

// Authentication methods.
const (
	AuthMethodNone AuthMethod = iota
	AuthMethodWEP
	AuthMethodWPA
	AuthMethodWPA2Personal
	AuthMethodWPAWPA2Personal
	AuthMethodWPA2Enterprise
	AuthMethodWPA3Personal
	AuthMethodWPA2WPA3Personal
	AuthMethodWAPIPersonal
)

var authMethodNames = [...]string{
	AuthMethodNone:             "None",
	AuthMethodWEP:              "WEP",
	AuthMethodWPA:              "WPA",
	AuthMethodWPA2Personal:     "WPA2Personal",
	AuthMethodWPAWPA2Personal:  "WPAWPA2Personal",
	AuthMethodWPA2Enterprise:   "WPA2Enterprise",
	AuthMethodWPA3Personal:     "WPA3Personal",
	AuthMethodWPA2WPA3Personal: "WPA2WPA3Personal",
	AuthMethodWAPIPersonal:     "WAPIPersonal",
}

// String returns the method name.
func (a AuthMethod) String() string {
	if int(a) < len(authMethodNames) {
		return authMethodNames[a]
	}
	return fmt.Sprintf("Unknown AuthMethod (%d)", a)
}

// raw returns the driver's auth mode value. The driver numbers methods in
// the same order.
func (a AuthMethod) raw() uint32 {
	return uint32(a)
}

// authMethodFromRaw converts a driver auth mode value.
func authMethodFromRaw(raw uint32) (AuthMethod, bool) {
	if raw < uint32(len(authMethodNames)) {
		return AuthMethod(raw), true
	}
	return AuthMethodNone, false
}

// ClientConfiguration configures the station role.
type ClientConfiguration struct {
	SSID       string
	BSSID      *hal.MAC // Nil for any access point
	AuthMethod AuthMethod
	Password   string
	Channel    uint8 // Zero for any channel
}

// DefaultClientConfiguration returns a station configuration with
// WPA2-Personal authentication and no network selected.
func DefaultClientConfiguration() ClientConfiguration {
	return ClientConfiguration{AuthMethod: AuthMethodWPA2Personal}
}

func (c ClientConfiguration) validate() error {
	if len(c.SSID) > hal.SSIDSize {
		return fmt.Errorf("%w: ssid longer than %d bytes", pkg.ErrInvalidArgument, hal.SSIDSize)
	}
	if len(c.Password) > hal.PasswordSize {
		return fmt.Errorf("%w: password longer than %d bytes", pkg.ErrInvalidArgument, hal.PasswordSize)
	}
	return nil
}

func (c ClientConfiguration) clone() *ClientConfiguration {
	if c.BSSID != nil {
		bssid := *c.BSSID
		c.BSSID = &bssid
	}
	return &c
}

// AccessPointConfiguration configures the soft-AP role.
type AccessPointConfiguration struct {
	SSID           string
	SSIDHidden     bool
	Channel        uint8
	AuthMethod     AuthMethod
	Password       string
	MaxConnections uint8
}

// DefaultAccessPointConfiguration returns an open soft-AP on channel 1.
func DefaultAccessPointConfiguration() AccessPointConfiguration {
	return AccessPointConfiguration{
		SSID:           "iot-device",
		Channel:        1,
		AuthMethod:     AuthMethodNone,
		MaxConnections: 255,
	}
}

func (a AccessPointConfiguration) validate() error {
	if len(a.SSID) > hal.SSIDSize {
		return fmt.Errorf("%w: ssid longer than %d bytes", pkg.ErrInvalidArgument, hal.SSIDSize)
	}
	if len(a.Password) > hal.PasswordSize {
		return fmt.Errorf("%w: password longer than %d bytes", pkg.ErrInvalidArgument, hal.PasswordSize)
	}
	return nil
}

func (a AccessPointConfiguration) clone() *AccessPointConfiguration {
	return &a
}

// ConfigKind classifies a Configuration.
type ConfigKind uint8

// Configuration kinds.
const (
	KindNone ConfigKind = iota
	KindClient
	KindAccessPoint
	KindMixed
)

// String returns the kind name.
func (k ConfigKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindClient:
		return "Client"
	case KindAccessPoint:
		return "AccessPoint"
	case KindMixed:
		return "Mixed"
	default:
		return "Unknown"
	}
}

// Configuration is the role configuration of a controller. A nil half
// disables that role; both nil is the None configuration.
type Configuration struct {
	Client      *ClientConfiguration
	AccessPoint *AccessPointConfiguration
}

// ClientConfig returns a station-only configuration.
func ClientConfig(c ClientConfiguration) Configuration {
	return Configuration{Client: c.clone()}
}

// AccessPointConfig returns a soft-AP-only configuration.
func AccessPointConfig(a AccessPointConfiguration) Configuration {
	return Configuration{AccessPoint: a.clone()}
}

// MixedConfig returns a configuration running both roles.
func MixedConfig(c ClientConfiguration, a AccessPointConfiguration) Configuration {
	return Configuration{Client: c.clone(), AccessPoint: a.clone()}
}

// Kind classifies the configuration.
func (c Configuration) Kind() ConfigKind {
	switch {
	case c.Client != nil && c.AccessPoint != nil:
		return KindMixed
	case c.Client != nil:
		return KindClient
	case c.AccessPoint != nil:
		return KindAccessPoint
	default:
		return KindNone
	}
}

// Mode returns the roles the configuration enables. The None
// configuration has no mode.
func (c Configuration) Mode() (Mode, error) {
	switch c.Kind() {
	case KindClient:
		return ModeSta, nil
	case KindAccessPoint:
		return ModeAp, nil
	case KindMixed:
		return ModeApSta, nil
	default:
		return 0, pkg.ErrUnknownMode
	}
}

// clone returns a deep copy.
func (c Configuration) clone() Configuration {
	var out Configuration
	if c.Client != nil {
		out.Client = c.Client.clone()
	}
	if c.AccessPoint != nil {
		out.AccessPoint = c.AccessPoint.clone()
	}
	return out
}

func (c Configuration) validate() error {
	if c.Client != nil {
		if err := c.Client.validate(); err != nil {
			return err
		}
	}
	if c.AccessPoint != nil {
		if err := c.AccessPoint.validate(); err != nil {
			return err
		}
	}
	return nil
}

// merge returns the configuration that results from applying next on top
// of current. Only compatible role shapes are accepted: a Client
// configuration accepts Client updates, an AccessPoint configuration
// accepts AccessPoint updates, and a Mixed configuration accepts any
// non-None update, replacing the halves next carries.
func merge(current, next Configuration) (Configuration, error) {
	nextKind := next.Kind()
	if nextKind == KindNone {
		return Configuration{}, fmt.Errorf("%w: empty configuration", pkg.ErrInvalidArgument)
	}

	switch current.Kind() {
	case KindNone:
		return next.clone(), nil
	case KindClient, KindAccessPoint:
		if nextKind != current.Kind() {
			return Configuration{}, fmt.Errorf("%w: cannot apply %v configuration to %v controller",
				pkg.ErrInvalidArgument, nextKind, current.Kind())
		}
		return next.clone(), nil
	default:
		merged := current.clone()
		if next.Client != nil {
			merged.Client = next.Client.clone()
		}
		if next.AccessPoint != nil {
			merged.AccessPoint = next.AccessPoint.clone()
		}
		return merged, nil
	}
}

// Capability is a role the controller supports.
type Capability uint8

// Capabilities.
const (
	CapabilityClient Capability = 1 << iota
	CapabilityAccessPoint
	CapabilityMixed
)

// Has reports whether c includes o.
func (c Capability) Has(o Capability) bool { return c&o == o }
