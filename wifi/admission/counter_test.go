package admission

import (
	"sync"
	"testing"

	"github.com/ardnew/softwifi/wifi/critical"
)

func TestCounterBound(t *testing.T) {
	var cs critical.Section
	c := New(&cs, 3)

	for i := range 3 {
		if !c.CanSend() {
			t.Fatalf("CanSend() = false with %d in flight, want true", i)
		}
		if !c.Grant() {
			t.Fatalf("Grant() %d = false, want true", i)
		}
	}

	if c.CanSend() {
		t.Error("CanSend() = true at capacity, want false")
	}
	if c.Grant() {
		t.Error("Grant() = true at capacity, want false")
	}
	if got := c.InFlight(); got != 3 {
		t.Errorf("InFlight() = %d, want 3", got)
	}

	c.Complete()
	if !c.CanSend() {
		t.Error("CanSend() = false after Complete, want true")
	}
	if got := c.InFlight(); got != 2 {
		t.Errorf("InFlight() = %d, want 2", got)
	}
}

func TestCounterCompleteSaturates(t *testing.T) {
	var cs critical.Section
	c := New(&cs, 2)

	c.Complete()
	c.Complete()
	if got := c.InFlight(); got != 0 {
		t.Errorf("InFlight() = %d after spurious completions, want 0", got)
	}

	c.Grant()
	c.Complete()
	c.Complete()
	if got := c.InFlight(); got != 0 {
		t.Errorf("InFlight() = %d, want 0", got)
	}
}

func TestCounterCap(t *testing.T) {
	var cs critical.Section
	if got := New(&cs, 7).Cap(); got != 7 {
		t.Errorf("Cap() = %d, want 7", got)
	}
}

func TestCounterConcurrentGrants(t *testing.T) {
	var cs critical.Section
	c := New(&cs, 4)

	var wg sync.WaitGroup
	var mutex sync.Mutex
	granted := 0
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Grant() {
				mutex.Lock()
				granted++
				mutex.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 4 {
		t.Errorf("granted = %d, want 4", granted)
	}
	if got := c.InFlight(); got != 4 {
		t.Errorf("InFlight() = %d, want 4", got)
	}
}

func TestNewInvalidCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(0) did not panic")
		}
	}()
	var cs critical.Section
	New(&cs, 0)
}
