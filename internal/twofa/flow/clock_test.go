package flow_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/huddlehq/twofa/internal/twofa/flow"
	"github.com/stretchr/testify/require"
)

func TestSessionClockTicksDownAndExpiresOnce(t *testing.T) {
	var ticks []int
	tickCh := make(chan int, 16)
	var expiries atomic.Int32
	expired := make(chan struct{})

	clock := flow.NewSessionClock(5, time.Millisecond,
		func(remaining int) { tickCh <- remaining },
		func() {
			if expiries.Add(1) == 1 {
				close(expired)
			}
		},
	)
	clock.Start()

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("clock never expired")
	}

	// Give a stray repeat expiry a chance to fire.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), expiries.Load())
	require.Equal(t, 0, clock.Remaining())

	close(tickCh)
	for r := range tickCh {
		ticks = append(ticks, r)
	}
	require.Equal(t, []int{4, 3, 2, 1}, ticks)
}

func TestSessionClockStopPreventsExpiry(t *testing.T) {
	var expiries atomic.Int32

	clock := flow.NewSessionClock(300, time.Millisecond, nil, func() {
		expiries.Add(1)
	})
	clock.Start()

	time.Sleep(10 * time.Millisecond)
	clock.Stop()

	// Stop is synchronous, nothing may fire afterwards.
	before := expiries.Load()
	time.Sleep(350 * time.Millisecond)
	require.Equal(t, before, expiries.Load())
	require.Equal(t, int32(0), expiries.Load())
}

func TestSessionClockStopIsIdempotent(t *testing.T) {
	clock := flow.NewSessionClock(300, time.Millisecond, nil, nil)
	clock.Start()

	clock.Stop()
	clock.Stop()
}

func TestSessionClockStopAfterExpiry(t *testing.T) {
	expired := make(chan struct{})
	clock := flow.NewSessionClock(1, time.Millisecond, nil, func() { close(expired) })
	clock.Start()

	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("clock never expired")
	}

	clock.Stop()
}
