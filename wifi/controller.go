package wifi

import (
	"context"
	"fmt"
	"sync"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/pkg/config"
	"github.com/ardnew/softwifi/wifi/event"
	"github.com/ardnew/softwifi/wifi/hal"
)

// Country parameters applied after every start.
const (
	countryStartChannel = 1
	countryNumChannels  = 13
	countryMaxTxPower   = 20
	apBeaconInterval    = 100
)

// Controller drives the start, stop, connect, disconnect and scan
// protocol. Long-running operations wait for the matching driver events;
// cancelling the context abandons the wait.
//
// Operations are serialized: a second command waits for the first.
type Controller struct {
	core *Core

	// opMutex serializes commands.
	opMutex sync.Mutex

	// mutex guards config.
	mutex  sync.RWMutex
	config Configuration
}

// NewController sets the driver mode for cfg and applies it.
func NewController(core *Core, cfg Configuration) (*Controller, error) {
	if core == nil || core.IsClosed() {
		return nil, pkg.ErrNotInitialized
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	if err := core.driver.SetMode(mode.halMode()); err != nil {
		return nil, fmt.Errorf("set mode: %w", err)
	}
	pkg.LogDebug(pkg.ComponentController, "mode set", "mode", mode)

	c := &Controller{core: core}
	if err := c.SetConfiguration(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// NewWithConfig initializes d and returns the device matching a Client or
// AccessPoint configuration together with its controller. Use NewApSta
// for mixed configurations.
func NewWithConfig(d hal.Driver, cfg Configuration, opts ...Option) (*Device, *Controller, error) {
	var iface hal.Interface
	switch cfg.Kind() {
	case KindClient:
		iface = hal.IfSta
	case KindAccessPoint:
		iface = hal.IfAp
	case KindMixed:
		return nil, nil, fmt.Errorf("%w: mixed configuration needs two devices", pkg.ErrInvalidArgument)
	default:
		return nil, nil, pkg.ErrUnknownMode
	}

	core, err := New(d, opts...)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := NewController(core, cfg)
	if err != nil {
		return nil, nil, err
	}
	return core.Device(iface), ctrl, nil
}

// NewApSta initializes d in station-and-soft-AP mode and returns the
// soft-AP device, the station device and the controller.
func NewApSta(d hal.Driver, sta ClientConfiguration, ap AccessPointConfiguration, opts ...Option) (*Device, *Device, *Controller, error) {
	core, err := New(d, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	ctrl, err := NewController(core, MixedConfig(sta, ap))
	if err != nil {
		return nil, nil, nil, err
	}
	return core.Device(hal.IfAp), core.Device(hal.IfSta), ctrl, nil
}

// Core returns the shared exchange state.
func (c *Controller) Core() *Core {
	return c.core
}

// Configuration returns a copy of the stored configuration.
func (c *Controller) Configuration() Configuration {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.config.clone()
}

// SetConfiguration applies cfg to the driver and stores the merged
// result. See [Configuration] for the accepted role shapes; mismatches
// return [pkg.ErrInvalidArgument]. The stored configuration changes only
// if the driver accepted every setting.
func (c *Controller) SetConfiguration(cfg Configuration) error {
	c.opMutex.Lock()
	defer c.opMutex.Unlock()

	if err := cfg.validate(); err != nil {
		return err
	}
	merged, err := merge(c.Configuration(), cfg)
	if err != nil {
		return err
	}

	if cfg.AccessPoint != nil {
		if err := c.applyAccessPoint(cfg.AccessPoint); err != nil {
			return err
		}
	}
	if cfg.Client != nil {
		if err := c.applyClient(cfg.Client); err != nil {
			return err
		}
	}

	c.mutex.Lock()
	c.config = merged
	c.mutex.Unlock()

	pkg.LogDebug(pkg.ComponentController, "configuration set", "kind", merged.Kind())
	return nil
}

func (c *Controller) applyAccessPoint(ap *AccessPointConfiguration) error {
	cfg := hal.ApConfig{
		SSIDLen:        uint8(len(ap.SSID)),
		Channel:        ap.Channel,
		AuthMode:       ap.AuthMethod.raw(),
		SSIDHidden:     ap.SSIDHidden,
		MaxConnection:  ap.MaxConnections,
		BeaconInterval: apBeaconInterval,
	}
	copy(cfg.SSID[:], ap.SSID)
	copy(cfg.Password[:], ap.Password)

	if err := c.core.driver.SetApConfig(&cfg); err != nil {
		return fmt.Errorf("set ap config: %w", err)
	}
	return nil
}

func (c *Controller) applyClient(sta *ClientConfiguration) error {
	t := c.core.tuning
	cfg := hal.StaConfig{
		Channel:           sta.Channel,
		AuthThreshold:     sta.AuthMethod.raw(),
		ListenInterval:    t.ListenInterval,
		ScanMethod:        t.ScanMethod,
		FailureRetryCount: t.FailureRetryCount,
	}
	copy(cfg.SSID[:], sta.SSID)
	copy(cfg.Password[:], sta.Password)
	if sta.BSSID != nil {
		cfg.BSSID = *sta.BSSID
		cfg.BSSIDSet = true
	}

	if err := c.core.driver.SetStaConfig(&cfg); err != nil {
		return fmt.Errorf("set sta config: %w", err)
	}
	return nil
}

// mode returns the mode of the stored configuration.
func (c *Controller) mode() (Mode, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.config.Mode()
}

// Capabilities returns the roles the stored configuration supports.
func (c *Controller) Capabilities() (Capability, error) {
	mode, err := c.mode()
	if err != nil {
		return 0, err
	}
	switch mode {
	case ModeSta:
		return CapabilityClient, nil
	case ModeAp:
		return CapabilityAccessPoint, nil
	default:
		return CapabilityClient | CapabilityAccessPoint | CapabilityMixed, nil
	}
}

// IsStaEnabled reports whether the configuration runs the station role.
func (c *Controller) IsStaEnabled() (bool, error) {
	mode, err := c.mode()
	return err == nil && mode.IsSta(), err
}

// IsApEnabled reports whether the configuration runs the soft-AP role.
func (c *Controller) IsApEnabled() (bool, error) {
	mode, err := c.mode()
	return err == nil && mode.IsAp(), err
}

// StaState returns the logical station state.
func (c *Controller) StaState() State {
	return c.core.roleStates().sta
}

// ApState returns the logical soft-AP state.
func (c *Controller) ApState() State {
	return c.core.roleStates().ap
}

// IsStarted reports whether either role has started.
func (c *Controller) IsStarted() bool {
	r := c.core.roleStates()
	switch r.sta {
	case StateStarted, StateConnecting, StateConnected, StateDisconnected:
		return true
	}
	return r.ap == StateStarted
}

// IsConnected reports whether the station is associated. It returns
// [pkg.ErrDisconnected] if the last association attempt ended in a
// disconnect.
func (c *Controller) IsConnected() (bool, error) {
	switch c.core.roleStates().sta {
	case StateConnected:
		return true, nil
	case StateDisconnected:
		return false, pkg.ErrDisconnected
	default:
		return false, nil
	}
}

// SetProtocol sets the 802.11 protocols of every interface the driver's
// current mode enables.
func (c *Controller) SetProtocol(p hal.Protocol) error {
	c.opMutex.Lock()
	defer c.opMutex.Unlock()

	m, err := c.core.driver.Mode()
	if err != nil {
		return fmt.Errorf("get mode: %w", err)
	}
	mode, err := halModeToMode(m)
	if err != nil {
		return err
	}
	for _, iface := range mode.interfaces() {
		if err := c.core.driver.SetProtocol(iface, p); err != nil {
			return fmt.Errorf("set protocol %v: %w", iface, err)
		}
	}
	return nil
}

// interfaces returns the interfaces the mode enables, soft-AP first.
func (m Mode) interfaces() []hal.Interface {
	var out []hal.Interface
	if m.IsAp() {
		out = append(out, hal.IfAp)
	}
	if m.IsSta() {
		out = append(out, hal.IfSta)
	}
	return out
}

// startEvents returns the events that complete a start of m.
func startEvents(m Mode) event.Set {
	var s event.Set
	if m.IsAp() {
		s = s.Add(event.ApStart)
	}
	if m.IsSta() {
		s = s.Add(event.StaStart)
	}
	return s
}

// stopEvents returns the events that complete a stop of m.
func stopEvents(m Mode) event.Set {
	var s event.Set
	if m.IsAp() {
		s = s.Add(event.ApStop)
	}
	if m.IsSta() {
		s = s.Add(event.StaStop)
	}
	return s
}

// Start starts every configured role and waits until the driver reported
// each of them started.
func (c *Controller) Start(ctx context.Context) error {
	c.opMutex.Lock()
	defer c.opMutex.Unlock()

	mode, err := c.mode()
	if err != nil {
		return err
	}
	events := startEvents(mode)
	c.core.events.ClearAll(events)

	prev := c.core.roleStates()
	c.core.setRoles(mode, StateStarting)
	if err := c.start(); err != nil {
		c.core.restoreRoles(prev)
		return err
	}

	pkg.LogDebug(pkg.ComponentController, "start issued", "mode", mode, "waiting", events)
	if err := c.core.events.WaitAll(ctx, events); err != nil {
		return err
	}
	pkg.LogInfo(pkg.ComponentController, "started", "mode", mode)
	return nil
}

// start issues the driver start and applies the post-start tuning.
func (c *Controller) start() error {
	d := c.core.driver
	t := c.core.tuning

	if err := d.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	m, err := d.Mode()
	if err != nil {
		return fmt.Errorf("get mode: %w", err)
	}
	mode, err := halModeToMode(m)
	if err != nil {
		return err
	}
	if mode.IsAp() {
		if err := d.SetInactiveTime(hal.IfAp, t.APBeaconTimeout); err != nil {
			return fmt.Errorf("set ap inactive time: %w", err)
		}
	}
	if mode.IsSta() {
		if err := d.SetInactiveTime(hal.IfSta, t.BeaconTimeout); err != nil {
			return fmt.Errorf("set sta inactive time: %w", err)
		}
	}

	if err := d.SetPowerSave(powerSave(t.PowerSave)); err != nil {
		return fmt.Errorf("set power save: %w", err)
	}

	country := hal.Country{
		StartChan:  countryStartChannel,
		NumChan:    countryNumChannels,
		MaxTxPower: countryMaxTxPower,
		Policy:     hal.CountryPolicyManual,
	}
	copy(country.CC[:2], t.CountryCode)
	country.CC[2] = t.CountryOperatingClass
	if err := d.SetCountry(&country); err != nil {
		return fmt.Errorf("set country: %w", err)
	}
	return nil
}

func powerSave(name string) hal.PowerSave {
	switch name {
	case config.PowerSaveMin:
		return hal.PowerSaveMin
	case config.PowerSaveMax:
		return hal.PowerSaveMax
	default:
		return hal.PowerSaveNone
	}
}

// Stop stops every configured role and waits until the driver reported
// each of them stopped. The cached role states are reset to Idle once the
// wait returns, whether or not it completed.
func (c *Controller) Stop(ctx context.Context) error {
	c.opMutex.Lock()
	defer c.opMutex.Unlock()

	mode, err := c.mode()
	if err != nil {
		return err
	}
	events := stopEvents(mode)
	c.core.events.ClearAll(events)

	prev := c.core.roleStates()
	c.core.setRoles(mode, StateStopping)
	if err := c.core.driver.Stop(); err != nil {
		c.core.restoreRoles(prev)
		return fmt.Errorf("stop: %w", err)
	}

	err = c.core.events.WaitAll(ctx, events)
	c.core.restoreRoles(roleStates{})
	if err != nil {
		return err
	}
	pkg.LogInfo(pkg.ComponentController, "stopped", "mode", mode)
	return nil
}

// Connect associates the station and waits for the outcome. A
// disconnect outcome returns the driver's synchronous error if the
// connect command failed, and [pkg.ErrDisconnected] otherwise. If ctx
// ends first, the station state stays Connecting until the driver reports
// an outcome.
func (c *Controller) Connect(ctx context.Context) error {
	c.opMutex.Lock()
	defer c.opMutex.Unlock()

	outcome := event.Of(event.StaConnected, event.StaDisconnected)
	c.core.events.ClearAll(outcome)

	c.core.cs.With(func() { c.core.roles.sta = StateConnecting })
	connectErr := c.core.driver.Connect()
	if connectErr != nil {
		connectErr = fmt.Errorf("connect: %w", connectErr)
		pkg.LogDebug(pkg.ComponentController, "connect command failed", "error", connectErr)
	}

	got, err := c.core.events.WaitAny(ctx, outcome)
	if err != nil {
		return err
	}
	if got.Contains(event.StaDisconnected) {
		if connectErr != nil {
			return connectErr
		}
		return pkg.ErrDisconnected
	}
	pkg.LogInfo(pkg.ComponentController, "connected")
	return nil
}

// Disconnect drops the station association and waits until the driver
// reported it.
func (c *Controller) Disconnect(ctx context.Context) error {
	c.opMutex.Lock()
	defer c.opMutex.Unlock()

	c.core.events.Clear(event.StaDisconnected)
	if err := c.core.driver.Disconnect(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	if err := c.core.events.Wait(ctx, event.StaDisconnected); err != nil {
		return err
	}
	pkg.LogInfo(pkg.ComponentController, "disconnected")
	return nil
}

// WaitForEvent discards a pending e and waits for the next one.
func (c *Controller) WaitForEvent(ctx context.Context, e event.Event) error {
	c.core.events.Clear(e)
	return c.core.events.Wait(ctx, e)
}

// WaitForEvents waits for any event in s and returns those that fired.
// With clearPending set, events already pending are discarded first.
func (c *Controller) WaitForEvents(ctx context.Context, s event.Set, clearPending bool) (event.Set, error) {
	if clearPending {
		c.core.events.ClearAll(s)
	}
	return c.core.events.WaitAny(ctx, s)
}

// WaitForAllEvents waits until every event in s has fired. With
// clearPending set, events already pending are discarded first.
func (c *Controller) WaitForAllEvents(ctx context.Context, s event.Set, clearPending bool) error {
	if clearPending {
		c.core.events.ClearAll(s)
	}
	return c.core.events.WaitAll(ctx, s)
}
