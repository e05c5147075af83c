package wifi

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi/event"
	"github.com/ardnew/softwifi/wifi/hal"
)

// Scan dwell defaults and limits.
const (
	DefaultActiveMin = 10 * time.Millisecond
	DefaultActiveMax = 20 * time.Millisecond

	// PassiveWarnThreshold is the passive dwell above which a station may
	// lose its association while scanning.
	PassiveWarnThreshold = 1500 * time.Millisecond
)

// ScanType selects active or passive scanning.
type ScanType uint8

// Scan types.
const (
	ScanActive  ScanType = iota // Probe each channel; dwell between ActiveMin and ActiveMax
	ScanPassive                 // Listen for beacons for Passive on each channel
)

// ScanConfig filters and times a scan. The zero value is an active scan of
// every channel with the default dwell times.
type ScanConfig struct {
	SSID       string   // Empty for any network
	BSSID      *hal.MAC // Nil for any access point
	Channel    uint8    // Zero for every channel
	ShowHidden bool
	Type       ScanType
	ActiveMin  time.Duration
	ActiveMax  time.Duration
	Passive    time.Duration // Zero leaves the driver default
}

// params validates the configuration and converts it to driver
// parameters.
func (sc ScanConfig) params() (hal.ScanParams, error) {
	if len(sc.SSID) > hal.SSIDSize {
		return hal.ScanParams{}, fmt.Errorf("%w: scan ssid longer than %d bytes", pkg.ErrInvalidArgument, hal.SSIDSize)
	}

	p := hal.ScanParams{
		SSID:       sc.SSID,
		Channel:    sc.Channel,
		ShowHidden: sc.ShowHidden,
	}
	if sc.BSSID != nil {
		p.BSSID = *sc.BSSID
		p.BSSIDSet = true
	}

	switch sc.Type {
	case ScanActive:
		lo, hi := sc.ActiveMin, sc.ActiveMax
		if lo == 0 {
			lo = DefaultActiveMin
		}
		if hi == 0 {
			hi = DefaultActiveMax
		}
		if lo < 0 || hi < 0 || lo > hi {
			return hal.ScanParams{}, fmt.Errorf("%w: active dwell [%v, %v]", pkg.ErrInvalidArgument, lo, hi)
		}
		p.Type = hal.ScanActive
		p.ActiveMinMS = uint32(lo.Milliseconds())
		p.ActiveMaxMS = uint32(hi.Milliseconds())
	case ScanPassive:
		if sc.Passive < 0 {
			return hal.ScanParams{}, fmt.Errorf("%w: passive dwell %v", pkg.ErrInvalidArgument, sc.Passive)
		}
		if sc.Passive > PassiveWarnThreshold {
			pkg.LogWarn(pkg.ComponentScan, "passive dwell may drop the station association",
				"dwell", sc.Passive)
		}
		p.Type = hal.ScanPassive
		p.PassiveMS = uint32(sc.Passive.Milliseconds())
	default:
		return hal.ScanParams{}, fmt.Errorf("%w: scan type %d", pkg.ErrInvalidArgument, sc.Type)
	}
	return p, nil
}

// SecondaryChannel is the position of a 40 MHz secondary channel.
type SecondaryChannel uint8

// Secondary channel positions.
const (
	SecondaryNone SecondaryChannel = iota
	SecondaryAbove
	SecondaryBelow
)

// String returns the position name.
func (s SecondaryChannel) String() string {
	switch s {
	case SecondaryNone:
		return "None"
	case SecondaryAbove:
		return "Above"
	case SecondaryBelow:
		return "Below"
	default:
		return "Unknown"
	}
}

// AccessPointInfo is one scan result.
type AccessPointInfo struct {
	SSID             string
	BSSID            hal.MAC
	Channel          uint8
	SecondaryChannel SecondaryChannel
	SignalStrength   int8
	AuthMethod       AuthMethod
}

// convertAPInfo converts a raw record. Records with an unknown secondary
// channel are rejected.
func convertAPInfo(r *hal.APRecord) (AccessPointInfo, bool) {
	ssid := r.SSID[:hal.SSIDSize]
	if i := bytes.IndexByte(ssid, 0); i >= 0 {
		ssid = ssid[:i]
	}

	info := AccessPointInfo{
		SSID:           string(ssid),
		BSSID:          r.BSSID,
		Channel:        r.Primary,
		SignalStrength: r.RSSI,
	}

	switch r.Second {
	case hal.SecondNone:
		info.SecondaryChannel = SecondaryNone
	case hal.SecondAbove:
		info.SecondaryChannel = SecondaryAbove
	case hal.SecondBelow:
		info.SecondaryChannel = SecondaryBelow
	default:
		pkg.LogWarn(pkg.ComponentScan, "skipping record with unknown secondary channel",
			"bssid", r.BSSID,
			"second", r.Second)
		return AccessPointInfo{}, false
	}

	auth, ok := authMethodFromRaw(r.AuthMode)
	if !ok {
		pkg.LogWarn(pkg.ComponentScan, "unknown auth mode",
			"bssid", r.BSSID,
			"authmode", r.AuthMode)
	}
	info.AuthMethod = auth
	return info, true
}

// scanListGuard frees the driver's scan result list unless defused.
type scanListGuard struct {
	driver hal.Driver
	armed  bool
}

func armScanList(d hal.Driver) *scanListGuard {
	return &scanListGuard{driver: d, armed: true}
}

// defuse hands responsibility for the list back to the caller.
func (g *scanListGuard) defuse() {
	g.armed = false
}

// release frees the list if the guard is still armed.
func (g *scanListGuard) release() {
	if !g.armed {
		return
	}
	g.armed = false
	if err := g.driver.FreeScanList(); err != nil {
		pkg.LogWarn(pkg.ComponentScan, "failed to free scan list", "error", err)
		return
	}
	pkg.LogDebug(pkg.ComponentScan, "scan list freed")
}

// Scan runs a non-blocking scan and waits for it to finish. It returns up
// to limit results and the total number the driver found. If the wait is
// abandoned the driver's result list is freed.
func (c *Controller) Scan(ctx context.Context, sc ScanConfig, limit int) ([]AccessPointInfo, int, error) {
	if limit < 0 {
		return nil, 0, fmt.Errorf("%w: limit %d", pkg.ErrInvalidArgument, limit)
	}
	params, err := sc.params()
	if err != nil {
		return nil, 0, err
	}

	c.opMutex.Lock()
	defer c.opMutex.Unlock()

	d := c.core.driver
	c.core.events.Clear(event.ScanDone)
	if err := d.BeginScan(&params, false); err != nil {
		return nil, 0, fmt.Errorf("begin scan: %w", err)
	}

	guard := armScanList(d)
	defer guard.release()
	if err := c.core.events.Wait(ctx, event.ScanDone); err != nil {
		pkg.LogDebug(pkg.ComponentScan, "scan wait abandoned", "error", err)
		return nil, 0, err
	}
	guard.defuse()

	return c.collect(limit)
}

// ScanSync runs a blocking scan and returns up to limit results and the
// total number found.
func (c *Controller) ScanSync(sc ScanConfig, limit int) ([]AccessPointInfo, int, error) {
	if limit < 0 {
		return nil, 0, fmt.Errorf("%w: limit %d", pkg.ErrInvalidArgument, limit)
	}
	params, err := sc.params()
	if err != nil {
		return nil, 0, err
	}

	c.opMutex.Lock()
	defer c.opMutex.Unlock()

	if err := c.core.driver.BeginScan(&params, true); err != nil {
		return nil, 0, fmt.Errorf("begin scan: %w", err)
	}
	return c.collect(limit)
}

// collect asks the driver for the result count and then the records. The
// result list is freed on every path.
func (c *Controller) collect(limit int) ([]AccessPointInfo, int, error) {
	total, err := c.scanCount()
	if err != nil {
		return nil, 0, err
	}
	infos, err := c.scanRecords(min(limit, total))
	if err != nil {
		return nil, 0, err
	}
	pkg.LogDebug(pkg.ComponentScan, "scan complete", "total", total, "returned", len(infos))
	return infos, total, nil
}

func (c *Controller) scanCount() (int, error) {
	guard := armScanList(c.core.driver)
	defer guard.release()

	n, err := c.core.driver.ScanCount()
	if err != nil {
		return 0, fmt.Errorf("scan count: %w", err)
	}
	guard.defuse()
	return int(n), nil
}

// scanRecords reads up to n records. n must not exceed the driver's count.
func (c *Controller) scanRecords(n int) ([]AccessPointInfo, error) {
	guard := armScanList(c.core.driver)
	defer guard.release()

	if n == 0 {
		// Nothing to read; the guard frees the list.
		return []AccessPointInfo{}, nil
	}

	records := make([]hal.APRecord, n)
	got, err := c.core.driver.ScanRecords(records)
	if err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	guard.defuse()

	got = max(0, min(got, len(records)))
	infos := make([]AccessPointInfo, 0, got)
	for i := range records[:got] {
		if info, ok := convertAPInfo(&records[i]); ok {
			infos = append(infos, info)
		}
	}
	return infos, nil
}
