package sim_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi"
	"github.com/ardnew/softwifi/wifi/hal"
	"github.com/ardnew/softwifi/wifi/hal/sim"
	"github.com/ardnew/softwifi/wifi/wake"
)

const etherType = 0x88B5

type network struct {
	apRadio, staRadio *sim.Radio
	apDev, staDev     *wifi.Device
	apCtrl, staCtrl   *wifi.Controller
}

func newNetwork(t *testing.T) *network {
	t.Helper()
	air := sim.NewAir()
	n := &network{
		apRadio:  sim.New(air, sim.WithLatency(time.Millisecond)),
		staRadio: sim.New(air, sim.WithLatency(time.Millisecond)),
	}

	ap := wifi.DefaultAccessPointConfiguration()
	ap.SSID = "softwifi"
	ap.AuthMethod = wifi.AuthMethodWPA2Personal
	ap.Password = "correct horse"
	ap.Channel = 6

	sta := wifi.DefaultClientConfiguration()
	sta.SSID = "softwifi"
	sta.Password = "correct horse"

	var err error
	n.apDev, n.apCtrl, err = wifi.NewWithConfig(n.apRadio, wifi.AccessPointConfig(ap))
	require.NoError(t, err)
	n.staDev, n.staCtrl, err = wifi.NewWithConfig(n.staRadio, wifi.ClientConfig(sta))
	require.NoError(t, err)
	return n
}

func (n *network) start(ctx context.Context, t *testing.T) {
	t.Helper()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.apCtrl.Start(gctx) })
	g.Go(func() error { return n.staCtrl.Start(gctx) })
	require.NoError(t, g.Wait())
}

// close shuts both cores and radios down and returns every leak report.
func (n *network) close() error {
	var errs []error
	for _, c := range []*wifi.Controller{n.apCtrl, n.staCtrl} {
		errs = append(errs, c.Core().Close())
	}
	errs = append(errs, n.apRadio.Close(), n.staRadio.Close())
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func frame(buf []byte, dst, src hal.MAC, seq uint32) {
	copy(buf[0:6], dst[:])
	copy(buf[6:12], src[:])
	binary.BigEndian.PutUint16(buf[12:14], etherType)
	binary.BigEndian.PutUint32(buf[14:18], seq)
}

// receive waits for a frame on dev and returns the tokens.
func receive(ctx context.Context, dev *wifi.Device) (*wifi.RxToken, *wifi.TxToken, error) {
	sig := wake.NewSignal()
	for {
		if rx, tx, ok := dev.PollReceive(sig); ok {
			return rx, tx, nil
		}
		select {
		case <-sig.C():
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
}

// transmit waits for a transmit grant on dev.
func transmit(ctx context.Context, dev *wifi.Device) (*wifi.TxToken, error) {
	sig := wake.NewSignal()
	for {
		if tx, ok := dev.PollTransmit(sig); ok {
			return tx, nil
		}
		select {
		case <-sig.C():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func TestEchoExchange(t *testing.T) {
	const rounds = 20

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n := newNetwork(t)
	n.start(ctx, t)

	results, total, err := n.staCtrl.Scan(ctx, wifi.ScanConfig{}, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "softwifi", results[0].SSID)
	assert.Equal(t, uint8(6), results[0].Channel)
	assert.Equal(t, wifi.AuthMethodWPA2Personal, results[0].AuthMethod)

	require.NoError(t, n.staCtrl.Connect(ctx))
	assert.Equal(t, wifi.LinkUp, n.staDev.LinkState(nil))
	assert.Equal(t, wifi.LinkUp, n.apDev.LinkState(nil))
	assert.Equal(t, 1, n.apRadio.Stations())

	apMAC, err := n.apDev.MACAddress()
	require.NoError(t, err)
	staMAC, err := n.staDev.MACAddress()
	require.NoError(t, err)

	size := n.staDev.Capabilities().MTU
	g, gctx := errgroup.WithContext(ctx)

	// The soft-AP echoes every frame back to its sender.
	g.Go(func() error {
		for range rounds {
			rx, reply, err := receive(gctx, n.apDev)
			if err != nil {
				return err
			}
			var echo []byte
			if err := rx.Consume(func(f []byte) error {
				echo = append(echo[:0], f...)
				return nil
			}); err != nil {
				return err
			}
			err = reply.Consume(len(echo), func(f []byte) error {
				copy(f, echo)
				copy(f[0:6], echo[6:12])
				copy(f[6:12], apMAC[:])
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		for seq := range uint32(rounds) {
			tx, err := transmit(gctx, n.staDev)
			if err != nil {
				return err
			}
			payload := make([]byte, 18+int(seq))
			frame(payload, apMAC, staMAC, seq)
			if err := tx.Consume(len(payload), func(f []byte) error {
				copy(f, payload)
				return nil
			}); err != nil {
				return err
			}

			rx, _, err := receive(gctx, n.staDev)
			if err != nil {
				return err
			}
			if err := rx.Consume(func(f []byte) error {
				if !bytes.Equal(f[0:6], staMAC[:]) || !bytes.Equal(f[6:12], apMAC[:]) {
					return fmt.Errorf("round %d: bad addresses %x", seq, f[0:12])
				}
				if got := binary.BigEndian.Uint32(f[14:18]); got != seq {
					return fmt.Errorf("round %d: echoed sequence %d", seq, got)
				}
				if len(f) != len(payload) {
					return fmt.Errorf("round %d: echoed %d bytes, want %d", seq, len(f), len(payload))
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())
	assert.Less(t, 18+rounds, size)

	require.NoError(t, n.staCtrl.Disconnect(ctx))
	assert.Equal(t, wifi.LinkDown, n.staDev.LinkState(nil))

	require.NoError(t, n.staCtrl.Stop(ctx))
	require.NoError(t, n.apCtrl.Stop(ctx))
	assert.False(t, n.apCtrl.IsStarted())

	assert.Equal(t, 0, n.apRadio.Outstanding())
	assert.Equal(t, 0, n.staRadio.Outstanding())
	assert.Equal(t, 0, n.apRadio.DoubleFrees())
	assert.NoError(t, n.close())
}

func TestStartAppliesTuning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := newNetwork(t)
	n.start(ctx, t)

	assert.Equal(t, uint16(300), n.apRadio.InactiveTime(hal.IfAp))
	assert.Equal(t, uint16(6), n.staRadio.InactiveTime(hal.IfSta))
	assert.Equal(t, [3]byte{'C', 'N', 0}, n.staRadio.Country().CC)
	assert.NoError(t, n.close())
}

func TestConnectWrongPassword(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := newNetwork(t)
	n.start(ctx, t)

	cfg := n.staCtrl.Configuration()
	cfg.Client.Password = "wrong"
	require.NoError(t, n.staCtrl.SetConfiguration(cfg))

	assert.ErrorIs(t, n.staCtrl.Connect(ctx), pkg.ErrDisconnected)
	_, err := n.staCtrl.IsConnected()
	assert.ErrorIs(t, err, pkg.ErrDisconnected)
	assert.NoError(t, n.close())
}

func TestConnectSyncErrorThenDisconnected(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := newNetwork(t)
	n.start(ctx, t)

	n.staRadio.Fail(sim.OpConnect, pkg.CodeWifiConn)
	err := n.staCtrl.Connect(ctx)
	assert.ErrorIs(t, err, pkg.CodeWifiConn)
	assert.ErrorContains(t, err, "connect")
	assert.NoError(t, n.close())
}

func TestScanAbandonedFreesList(t *testing.T) {
	air := sim.NewAir()
	apRadio := sim.New(air)
	staRadio := sim.New(air, sim.WithLatency(50*time.Millisecond))

	ap := wifi.DefaultAccessPointConfiguration()
	_, apCtrl, err := wifi.NewWithConfig(apRadio, wifi.AccessPointConfig(ap))
	require.NoError(t, err)
	_, staCtrl, err := wifi.NewWithConfig(staRadio, wifi.ClientConfig(wifi.DefaultClientConfiguration()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, apCtrl.Start(ctx))
	require.NoError(t, staCtrl.Start(ctx))

	short, cancelShort := context.WithTimeout(ctx, 5*time.Millisecond)
	defer cancelShort()
	_, _, err = staCtrl.Scan(short, wifi.ScanConfig{}, 4)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, staCtrl.Core().Close())
	require.NoError(t, apCtrl.Core().Close())
	assert.NoError(t, staRadio.Close(), "scan list freed when the wait was abandoned")
	assert.NoError(t, apRadio.Close())
}
