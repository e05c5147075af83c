package event

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softwifi/pkg"
	"github.com/ardnew/softwifi/wifi/critical"
	"github.com/ardnew/softwifi/wifi/wake"
)

func newRegistry() *Registry {
	return NewRegistry(new(critical.Section))
}

func TestRegistryIdempotent(t *testing.T) {
	r := newRegistry()
	r.Set(StaConnected)
	r.Set(StaConnected)

	assert.True(t, r.TryTake(StaConnected))
	assert.False(t, r.TryTake(StaConnected), "duplicate raise must be observed once")
}

func TestRegistrySetAllWakesNewlyRaised(t *testing.T) {
	r := newRegistry()
	var sta, ap atomic.Int32
	r.Register(Of(StaStart), wake.Func(func() { sta.Add(1) }))
	r.Register(Of(ApStart), wake.Func(func() { ap.Add(1) }))

	r.Set(StaStart)
	r.SetAll(Of(StaStart, ApStart))
	assert.Equal(t, int32(1), sta.Load(), "already pending event must not wake again")
	assert.Equal(t, int32(1), ap.Load())

	require.True(t, r.TryTake(StaStart))
	r.Set(StaStart)
	assert.Equal(t, int32(2), sta.Load())
}

func TestRegistryPollNoMissedWakeup(t *testing.T) {
	r := newRegistry()
	var woken atomic.Int32
	w := wake.Func(func() { woken.Add(1) })

	require.False(t, r.Poll(ScanDone, w))
	r.Set(ScanDone)
	assert.Equal(t, int32(1), woken.Load())
	assert.True(t, r.Poll(ScanDone, w))
}

func TestRegistryPollAfterSet(t *testing.T) {
	r := newRegistry()
	r.Set(ApStart)

	var woken atomic.Int32
	got := r.PollAny(Of(ApStart, StaStart), wake.Func(func() { woken.Add(1) }))
	assert.Equal(t, Of(ApStart), got)
	assert.Equal(t, int32(0), woken.Load())
	assert.True(t, r.Pending().Empty())
}

func TestRegistryLastWaiterWins(t *testing.T) {
	r := newRegistry()
	var first, second atomic.Int32

	r.Poll(StaStop, wake.Func(func() { first.Add(1) }))
	r.Poll(StaStop, wake.Func(func() { second.Add(1) }))
	r.Set(StaStop)

	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestRegistryClear(t *testing.T) {
	r := newRegistry()
	r.SetAll(Of(StaStart, ApStart, ScanDone))
	r.Clear(ScanDone)
	assert.Equal(t, Of(StaStart, ApStart), r.Pending())
	r.ClearAll(Of(StaStart, ApStart))
	assert.True(t, r.Pending().Empty())
}

func TestRegistryWait(t *testing.T) {
	r := newRegistry()
	go func() {
		time.Sleep(5 * time.Millisecond)
		r.Set(StaConnected)
	}()

	require.NoError(t, r.Wait(context.Background(), StaConnected))
	assert.False(t, r.Pending().Contains(StaConnected))
}

func TestRegistryWaitAnyReturnsArrived(t *testing.T) {
	r := newRegistry()
	go func() {
		time.Sleep(5 * time.Millisecond)
		r.Set(StaDisconnected)
	}()

	got, err := r.WaitAny(context.Background(), Of(StaConnected, StaDisconnected))
	require.NoError(t, err)
	assert.Equal(t, Of(StaDisconnected), got)
}

func TestRegistryWaitAnyEmptySet(t *testing.T) {
	_, err := newRegistry().WaitAny(context.Background(), 0)
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)
}

func TestRegistryWaitAll(t *testing.T) {
	r := newRegistry()
	done := make(chan error, 1)
	go func() {
		done <- r.WaitAll(context.Background(), Of(ApStart, StaStart))
	}()

	r.Set(ApStart)
	select {
	case err := <-done:
		t.Fatalf("WaitAll returned %v after only ApStart", err)
	case <-time.After(10 * time.Millisecond):
	}

	r.Set(StaStart)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitAll did not return after both events")
	}
}

func TestRegistryWaitAllEmpty(t *testing.T) {
	assert.NoError(t, newRegistry().WaitAll(context.Background(), 0))
}

func TestRegistryWaitCancelled(t *testing.T) {
	r := newRegistry()
	r.Set(ApStop)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Wait(ctx, ScanDone)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, Of(ApStop), r.Pending(), "abandoned wait must not touch pending events")

	r.Set(ScanDone)
	assert.True(t, r.TryTake(ScanDone))
}

func TestRegistryWaitAlreadyPending(t *testing.T) {
	r := newRegistry()
	r.Set(WifiReady)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, r.Wait(ctx, WifiReady), "pending event wins over a done context")
}
