// Package clock provides the monotonic time source and the single
// scheduling primitive (the timer wheel) used by every time-based
// protection stage: throttle's cooldown check, debounce's one-shot
// timers, buffer windows, and the interval/repeat lifecycle.
package clock

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Cancelable is the minimal surface a scheduled firing exposes back to
// the wheel. *time.Timer satisfies it directly.
type Cancelable interface {
	Stop() bool
}

// Clock abstracts wall-clock access so tests can substitute a virtual
// clock (see virtual.go) instead of sleeping in real time. The virtual
// clock is used only when passed in explicitly (engine.Options.Clock,
// cyre.NewTestInstance); no environment variable such as CYRE_TEST_MODE
// is read to select it.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Cancelable
}

// Real is the production Clock, backed directly by the standard
// library's monotonic timers.
type Real struct{}

// NewReal returns the production wall-clock implementation.
func NewReal() Real { return Real{} }

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Cancelable {
	if d <= 0 {
		// time.AfterFunc with a non-positive duration still fires
		// asynchronously; callers that need synchronous sub-tick
		// behavior for small durations rely on the wheel's spin path.
		return time.AfterFunc(time.Nanosecond, f)
	}
	return time.AfterFunc(d, f)
}

// SpinThreshold is the boundary below which the wheel prefers a
// busy-calibrated spin over handing the firing to the OS timer queue.
// Sub-threshold timers (debounce windows under a network tick, for
// example) are dominated by OS scheduling jitter if left to
// time.AfterFunc on a loaded machine.
const SpinThreshold = 25 * time.Millisecond

// spinGate serializes the spin path so a storm of sub-threshold timers
// cannot starve the scheduler with concurrent busy loops.
var spinGate sync.Mutex

// SpinFunc arms f to run after d using a calibrated spin/yield loop
// rather than the OS timer queue. It is only appropriate for d below
// SpinThreshold; callers are responsible for that check. Cancellation
// is cooperative: Stop sets a flag the spin loop observes between
// yields.
func SpinFunc(c Clock, d time.Duration, f func()) Cancelable {
	s := &spinCancel{}
	go func() {
		spinGate.Lock()
		defer spinGate.Unlock()
		deadline := c.Now().Add(d)
		for c.Now().Before(deadline) {
			if s.stopped.Load() {
				return
			}
			runtimeGosched()
		}
		if !s.stopped.Load() {
			f()
		}
	}()
	return s
}

func runtimeGosched() { runtime.Gosched() }

type spinCancel struct {
	stopped atomic.Bool
}

func (s *spinCancel) Stop() bool {
	return !s.stopped.Swap(true)
}
