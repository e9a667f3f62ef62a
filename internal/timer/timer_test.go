package timer

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitTick(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return 0
	}
}

// A 3-second arming ticks with 2 and then 1 remaining; the third
// second fires onExpire.
func TestArmTicksThenExpires(t *testing.T) {
	mock := quartz.NewMock(t)
	tm := New(mock)

	ticks := make(chan int, 32)
	expired := make(chan struct{}, 1)

	tm.Arm(3, func(remaining int) {
		ticks <- remaining
	}, func() {
		expired <- struct{}{}
	})
	require.True(t, tm.Armed())

	mock.Advance(time.Second)
	assert.Equal(t, 2, waitTick(t, ticks))

	mock.Advance(time.Second)
	assert.Equal(t, 1, waitTick(t, ticks))

	mock.Advance(time.Second)
	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for expiry")
	}

	assert.False(t, tm.Armed())
}

func TestDisarmPreventsFurtherCallbacks(t *testing.T) {
	mock := quartz.NewMock(t)
	tm := New(mock)

	ticks := make(chan int, 32)
	expired := make(chan struct{}, 1)

	tm.Arm(5, func(remaining int) {
		ticks <- remaining
	}, func() {
		expired <- struct{}{}
	})

	mock.Advance(time.Second)
	waitTick(t, ticks)

	tm.Disarm()
	assert.False(t, tm.Armed())

	mock.Advance(time.Second)
	mock.Advance(time.Second)

	select {
	case <-ticks:
		t.Fatal("tick fired after Disarm")
	case <-expired:
		t.Fatal("expiry fired after Disarm")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDisarmIsIdempotent(t *testing.T) {
	mock := quartz.NewMock(t)
	tm := New(mock)

	assert.NotPanics(t, func() {
		tm.Disarm()
		tm.Disarm()
	})

	tm.Arm(1, func(int) {}, func() {})
	tm.Disarm()
	assert.NotPanics(t, func() {
		tm.Disarm()
	})
}

func TestArmImplicitlyDisarmsPrevious(t *testing.T) {
	mock := quartz.NewMock(t)
	tm := New(mock)

	firstExpired := make(chan struct{}, 1)
	tm.Arm(5, func(int) {}, func() {
		firstExpired <- struct{}{}
	})

	secondTicks := make(chan int, 8)
	tm.Arm(2, func(remaining int) {
		secondTicks <- remaining
	}, func() {})

	mock.Advance(time.Second)
	assert.Equal(t, 1, waitTick(t, secondTicks))

	select {
	case <-firstExpired:
		t.Fatal("first timer's expiry fired after it was superseded")
	case <-time.After(200 * time.Millisecond):
	}
}
