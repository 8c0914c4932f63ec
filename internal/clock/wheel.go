package clock

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MaxTimeout is the largest single shard a Wheel will hand to the
// underlying clock. Durations beyond it are decomposed into a chain of
// MaxTimeout shards plus a remainder (spec §4.A), each shard boundary
// re-evaluating the current stress factor.
const MaxTimeout = 24 * time.Hour

var (
	ErrEmptyID       = errors.New("clock: timer id must not be empty")
	ErrDuplicateID   = errors.New("clock: timer id already scheduled")
	ErrNeverRepeat   = errors.New("clock: repeat=never timers are not kept")
	ErrNotFound      = errors.New("clock: no timer with that id")
	ErrHibernating   = errors.New("clock: wheel is hibernating")
)

// StressSource supplies the breathing controller's current interval
// scaler. 1.0 means no slowdown; the wheel multiplies every scheduled
// duration by it, so periodic work naturally slows under load.
type StressSource interface {
	IntervalFactor() float64
}

// fixedStress is used when the engine runs without a breathing
// controller wired in (e.g. isolated clock/wheel tests).
type fixedStress struct{ factor float64 }

func (f fixedStress) IntervalFactor() float64 { return f.factor }

// NoStress is a StressSource that never scales intervals.
var NoStress StressSource = fixedStress{factor: 1}

// RunawayReporter receives a notification when a timer is terminated
// for exceeding RunawayCeiling. The engine wires this to the sensor.
type RunawayReporter func(id string, executions int64)

// Wheel is the single process-wide scheduling primitive used by every
// time-based protection. It owns all *Timer values; other components
// hold only string ids.
type Wheel struct {
	mu          sync.RWMutex
	clock       Clock
	stress      StressSource
	timers      map[string]*Timer
	anon        uint64
	hibernating atomic.Bool
	onRunaway   RunawayReporter
}

// New constructs a Wheel over the given clock and stress source. A nil
// stress source is treated as NoStress; a nil reporter disables runaway
// notifications.
func New(c Clock, stress StressSource, onRunaway RunawayReporter) *Wheel {
	if stress == nil {
		stress = NoStress
	}
	return &Wheel{
		clock:     c,
		stress:    stress,
		timers:    make(map[string]*Timer),
		onRunaway: onRunaway,
	}
}

func (w *Wheel) stressFactor() float64 {
	f := w.stress.IntervalFactor()
	if f < 1 {
		return 1
	}
	return f
}

// Keep arms callback to fire after duration, following repeat's policy.
// An empty id is auto-generated from an internal counter. Repeat
// Never() is rejected: a never-firing timer is not kept at all, mirror-
// ing the registration-time repeat:0 block rather than a live timer.
func (w *Wheel) Keep(duration time.Duration, callback func(), repeat Repeat, id string) (*Timer, error) {
	if repeat.Kind == RepeatNeverKind {
		return nil, ErrNeverRepeat
	}
	if duration < 0 {
		duration = 0
	}

	w.mu.Lock()
	if w.hibernating.Load() {
		w.mu.Unlock()
		return nil, ErrHibernating
	}
	if id == "" {
		w.anon++
		id = fmt.Sprintf("anon-%d", w.anon)
	}
	if _, exists := w.timers[id]; exists {
		w.mu.Unlock()
		return nil, ErrDuplicateID
	}
	now := w.clock.Now()
	t := &Timer{
		ID:                id,
		StartTime:         now,
		Duration:          duration,
		OriginalDuration:  duration,
		Repeat:            repeat,
		Status:            StatusActive,
		NextExecutionTime: now.Add(scaled(duration, w.stressFactor())),
		callback:          callback,
		wheel:             w,
	}
	w.timers[id] = t
	w.mu.Unlock()

	w.arm(t, duration)
	return t, nil
}

func scaled(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}

// arm schedules the next firing for t, decomposing durations longer
// than MaxTimeout into a chain of shards so the stress factor can be
// re-evaluated at every shard boundary.
func (w *Wheel) arm(t *Timer, remaining time.Duration) {
	factor := w.stressFactor()
	if remaining > MaxTimeout {
		shard := MaxTimeout
		t.mu.Lock()
		t.pending = w.clock.AfterFunc(scaled(shard, factor), func() {
			w.arm(t, remaining-shard)
		})
		t.mu.Unlock()
		return
	}

	fire := func() { w.fire(t) }
	t.mu.Lock()
	if _, real := w.clock.(Real); real && remaining < SpinThreshold {
		// The spin path only makes sense against the real clock: it
		// busy-polls Clock.Now() in its own goroutine, which bypasses
		// Virtual's synchronous pendingQueue/Advance firing entirely
		// and races Advance's state instead of observing it.
		t.pending = SpinFunc(w.clock, scaled(remaining, factor), fire)
	} else {
		t.pending = w.clock.AfterFunc(scaled(remaining, factor), fire)
	}
	t.NextExecutionTime = w.clock.Now().Add(scaled(remaining, factor))
	t.mu.Unlock()
}

// fire invokes the callback and reschedules per the repeat policy.
func (w *Wheel) fire(t *Timer) {
	t.mu.Lock()
	if t.Status == StatusPaused {
		t.mu.Unlock()
		return
	}
	t.ExecutionCount++
	count := t.ExecutionCount
	t.Metrics.TotalFires++
	t.mu.Unlock()

	if count > RunawayCeiling {
		w.terminateRunaway(t)
		return
	}

	start := w.clock.Now()
	t.callback()
	t.mu.Lock()
	t.Metrics.LastFireDuration = w.clock.Now().Sub(start)
	t.mu.Unlock()

	if w.hibernating.Load() {
		return
	}

	t.mu.Lock()
	repeat := t.Repeat
	duration := t.OriginalDuration
	t.mu.Unlock()

	switch repeat.Kind {
	case RepeatOnceKind:
		w.remove(t.ID)
	case RepeatInfiniteKind:
		w.arm(t, duration)
	case RepeatCountKind:
		if count >= repeat.Count {
			w.remove(t.ID)
			return
		}
		w.arm(t, duration)
	}
}

func (w *Wheel) terminateRunaway(t *Timer) {
	t.mu.Lock()
	t.Metrics.RunawayTerminated = true
	t.mu.Unlock()
	w.remove(t.ID)
	if w.onRunaway != nil {
		w.onRunaway(t.ID, t.ExecutionCount)
	}
}

func (w *Wheel) remove(id string) {
	w.mu.Lock()
	delete(w.timers, id)
	w.mu.Unlock()
}

// Forget cancels the pending firing for id, if any, and drops it from
// the wheel. It is a no-op if id is unknown.
func (w *Wheel) Forget(id string) {
	w.mu.Lock()
	t, ok := w.timers[id]
	if ok {
		delete(w.timers, id)
	}
	w.mu.Unlock()
	if !ok {
		return
	}
	t.mu.Lock()
	if t.pending != nil {
		t.pending.Stop()
	}
	t.mu.Unlock()
}

// Get returns a read-only snapshot of the timer, for metrics/status
// reporting.
func (w *Wheel) Get(id string) (Timer, bool) {
	w.mu.RLock()
	t, ok := w.timers[id]
	w.mu.RUnlock()
	if !ok {
		return Timer{}, false
	}
	return t.snapshot(), true
}

// Active reports how many timers are currently tracked.
func (w *Wheel) Active() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.timers)
}

// Pause freezes id (or every timer, if id is empty): no firings occur
// while paused. The elapsed-vs-residual duration is preserved so Resume
// can rearm from where it left off.
func (w *Wheel) Pause(id string) error {
	if id == "" {
		w.mu.RLock()
		ids := make([]string, 0, len(w.timers))
		for k := range w.timers {
			ids = append(ids, k)
		}
		w.mu.RUnlock()
		for _, k := range ids {
			_ = w.Pause(k)
		}
		return nil
	}

	w.mu.RLock()
	t, ok := w.timers[id]
	w.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	t.mu.Lock()
	if t.Status == StatusPaused {
		t.mu.Unlock()
		return nil
	}
	t.Status = StatusPaused
	residual := t.NextExecutionTime.Sub(w.clock.Now())
	if residual < 0 {
		residual = 0
	}
	t.residual = residual
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.mu.Unlock()
	return nil
}

// Resume reactivates id (or every paused timer, if id is empty),
// recomputing NextExecutionTime from now using the residual duration,
// scaled by the current stress factor.
func (w *Wheel) Resume(id string) error {
	if id == "" {
		w.mu.RLock()
		ids := make([]string, 0, len(w.timers))
		for k := range w.timers {
			ids = append(ids, k)
		}
		w.mu.RUnlock()
		for _, k := range ids {
			_ = w.Resume(k)
		}
		return nil
	}

	w.mu.RLock()
	t, ok := w.timers[id]
	w.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	t.mu.Lock()
	if t.Status != StatusPaused {
		t.mu.Unlock()
		return nil
	}
	t.Status = StatusActive
	residual := t.residual
	t.mu.Unlock()

	w.arm(t, residual)
	return nil
}

// Hibernate cancels and clears every timer and marks the wheel
// hibernating: no further Keep calls succeed until Reset.
func (w *Wheel) Hibernate() {
	w.mu.Lock()
	timers := w.timers
	w.timers = make(map[string]*Timer)
	w.hibernating.Store(true)
	w.mu.Unlock()

	for _, t := range timers {
		t.mu.Lock()
		if t.pending != nil {
			t.pending.Stop()
		}
		t.mu.Unlock()
	}
}

// Reset is the dual of Hibernate: it clears the hibernating flag so
// Keep can schedule new work again.
func (w *Wheel) Reset() {
	w.hibernating.Store(false)
}

// Hibernating reports the wheel's current hibernation state.
func (w *Wheel) Hibernating() bool { return w.hibernating.Load() }
