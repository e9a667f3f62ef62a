// Package timer implements the Engine's per-turn countdown. It is
// built on github.com/coder/quartz so that tests can drive time
// deterministically with quartz.NewMock.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Timer arms a single countdown at a time: a per-second tick callback
// and a one-shot expiry callback. Disarm cancels both and is
// idempotent; after Disarm returns, no further onTick or onExpire for
// the disarmed arming will run.
type Timer struct {
	clock quartz.Clock

	mu         sync.Mutex
	cancel     context.CancelFunc
	generation uint64
	armed      bool
}

// New builds a Timer driven by clock. Production code should pass
// quartz.NewReal(); tests pass quartz.NewMock(t).
func New(clock quartz.Clock) *Timer {
	return &Timer{clock: clock}
}

// Arm starts a countdown of the given number of seconds. onTick is
// invoked once per elapsed second with the seconds remaining; onExpire
// is invoked once when the countdown reaches zero. Arming implicitly
// disarms any previous countdown, since only one timer is armed at a
// time.
func (t *Timer) Arm(seconds int, onTick func(remaining int), onExpire func()) {
	t.mu.Lock()
	t.disarmLocked()
	t.generation++
	gen := t.generation
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.armed = true
	t.mu.Unlock()

	ticker := t.clock.NewTicker(time.Second, "turn-timer")

	go func() {
		defer ticker.Stop()
		remaining := seconds
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				remaining--

				t.mu.Lock()
				if t.generation != gen {
					t.mu.Unlock()
					return
				}
				if remaining <= 0 {
					t.armed = false
					t.mu.Unlock()
					onTick(0)
					onExpire()
					return
				}
				t.mu.Unlock()

				onTick(remaining)
			}
		}
	}()
}

// Disarm cancels any armed countdown. Safe to call when nothing is
// armed, and safe to call after expiry has already fired.
func (t *Timer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarmLocked()
}

func (t *Timer) disarmLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.generation++
	t.armed = false
}

// Armed reports whether a countdown is currently running.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}
