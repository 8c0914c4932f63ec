// Package engine wires the registry, stores, subscriber table,
// breathing controller, pipeline compiler, dispatcher, clock, and
// sensor into one instance, and owns the init/shutdown/lock state
// machine (spec §4.K, §9 "Global mutable state"). The public cyre
// package wraps a default instance of this type; tests construct their
// own instances for isolation.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/cyreio/cyre-go/internal/breathing"
	"github.com/cyreio/cyre-go/internal/clock"
	"github.com/cyreio/cyre-go/internal/dispatch"
	"github.com/cyreio/cyre-go/internal/pipeline"
	"github.com/cyreio/cyre-go/internal/registry"
	"github.com/cyreio/cyre-go/internal/response"
	"github.com/cyreio/cyre-go/internal/store"
	"github.com/cyreio/cyre-go/internal/subscriber"
	"github.com/cyreio/cyre-go/pkg/sensor"
)

// BreathingTimerID is the wheel timer id the breathing tick is armed
// under (spec §9 "Timer ownership": "system-breathing").
const BreathingTimerID = "system-breathing"

// Options configures a new Engine. Every field has a usable zero
// value: a nil Clock selects the real clock, a nil Sink selects a
// no-op sink, a zero Capacity selects breathing.New's default.
type Options struct {
	Clock            clock.Clock
	Sink             sensor.Sink
	BreathingCapacity float64
	LinkMaxDepth     int
}

// Engine is one process-wide (or test-local) Cyre instance.
type Engine struct {
	mu sync.Mutex

	Registry    *registry.Registry
	Subscribers *subscriber.Table
	Breathing   *breathing.Controller
	Payloads    *store.PayloadStore
	Buffers     *store.BufferStore
	Wheel       *clock.Wheel
	Clock       clock.Clock
	Sink        sensor.Sink
	Dispatcher  *dispatch.Dispatcher

	initialized bool
	locked      bool
}

// New constructs an Engine with all collaborators wired, but not yet
// initialized: call Init to arm the breathing tick.
func New(opts Options) *Engine {
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewReal()
	}
	sink := opts.Sink
	if sink == nil {
		sink = sensor.NoopSink{}
	}

	e := &Engine{
		Registry:    registry.New(),
		Subscribers: subscriber.New(nil),
		Payloads:    store.NewPayloadStore(),
		Buffers:     store.NewBufferStore(),
		Clock:       clk,
		Sink:        sink,
	}
	e.Breathing = breathing.New(opts.BreathingCapacity, clk.Now)
	e.Wheel = clock.New(clk, e.Breathing, func(id string, executions int64) {
		e.Sink.Emit(sensor.New(sensor.LevelCritical, id, sensor.PhaseTimerRunaway, executions, uuidZero()))
	})
	e.Subscribers = subscriber.New(func(id string) {
		e.Sink.Emit(sensor.New(sensor.LevelWarn, id, sensor.PhaseHandlerReplaced, nil, uuidZero()))
	})
	e.Dispatcher = &dispatch.Dispatcher{
		Registry:     e.Registry,
		Subscribers:  e.Subscribers,
		Breathing:    e.Breathing,
		Payloads:     e.Payloads,
		Wheel:        e.Wheel,
		Clock:        clk,
		Sink:         sink,
		LinkMaxDepth: opts.LinkMaxDepth,
	}
	return e
}

func uuidZero() (z [16]byte) { return z }

func (e *Engine) pipelineDeps() pipeline.Deps {
	return pipeline.Deps{
		Wheel:        e.Wheel,
		Clock:        e.Clock,
		BufferStore:  e.Buffers,
		PayloadStore: e.Payloads,
		Sink:         e.Sink,
	}
}

// Init arms the breathing tick and marks the engine initialized. It is
// idempotent: a second call returns ok:true with a nil payload instead
// of re-arming the tick (spec §4.K: "idempotent").
func (e *Engine) Init() response.Response {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return response.Ok(nil, "cyre already initialized")
	}

	_, err := e.Wheel.Keep(breathing.TickInterval, func() {
		snap := e.Breathing.Tick()
		e.Sink.Emit(sensor.New(sensor.LevelInfo, "system", sensor.PhaseBreathingUpdate, snap, uuidZero()))
	}, clock.Infinite(), BreathingTimerID)
	if err != nil {
		return response.Fail(response.CategorySystemError, "failed to arm breathing tick", err)
	}

	e.initialized = true
	now := e.Clock.Now()
	e.Sink.Emit(sensor.New(sensor.LevelSys, "system", sensor.PhaseSystemInit, now, uuidZero()))
	return response.Ok(now.UnixMilli(), "cyre initialized")
}

// Action registers or replaces cfg per spec §4.G's three outcomes.
func (e *Engine) Action(cfg registry.Config) response.Response {
	e.mu.Lock()
	locked := e.locked
	e.mu.Unlock()
	if locked {
		return response.Fail(response.CategorySystemError, "cyre is locked: no new registrations", nil)
	}

	outcome, reason, err := registry.Validate(cfg)
	if err != nil {
		e.Sink.Emit(sensor.New(sensor.LevelError, cfg.ID, sensor.PhaseActionRejected, err.Error(), uuidZero()))
		return response.Fail(response.CategoryConfigRejected, err.Error(), err)
	}

	action := &registry.Action{Config: cfg}
	switch outcome {
	case registry.OutcomeBlock:
		action.IsBlocked = true
		action.BlockReason = reason
		e.Sink.Emit(sensor.New(sensor.LevelWarn, cfg.ID, sensor.PhaseActionBlocked, string(reason), uuidZero()))
	case registry.OutcomeAccept:
		compiled := pipeline.Compile(cfg, e.pipelineDeps())
		action.HasFastPath = compiled.HasFastPath
		action.CompiledPipeline = compiled
		e.Sink.Emit(sensor.New(sensor.LevelDebug, cfg.ID, sensor.PhasePipelineCompiled, compiled.StageNames(), uuidZero()))
	}

	if cfg.Repeat != nil {
		switch cfg.Repeat.Kind {
		case registry.RepeatPolicyCount:
			action.SetRepeatRemaining(cfg.Repeat.Count)
		case registry.RepeatPolicyInfinite:
			action.SetRepeatRemaining(-1)
		}
	}

	if err := e.Registry.Insert(action); err != nil {
		return response.Fail(response.CategoryConfigRejected, err.Error(), err)
	}
	e.Sink.Emit(sensor.New(sensor.LevelInfo, cfg.ID, sensor.PhaseActionRegistered, nil, uuidZero()))
	return response.Ok(nil, "action registered")
}

// On registers handler as the sole handler for id.
func (e *Engine) On(id string, handler subscriber.Handler) {
	e.Subscribers.On(id, handler)
}

// Call dispatches id per spec §4.I, running the delay/interval
// lifecycle around the dispatcher's per-call algorithm.
func (e *Engine) Call(id string, payload any) response.Response {
	action, ok := e.Registry.Get(id)
	if !ok {
		return e.Dispatcher.Call(id, payload)
	}

	snap := action.Snapshot()
	if snap.Config.Delay > 0 && !snap.Started {
		return e.scheduleDelayed(action, payload)
	}

	result := e.Dispatcher.Call(id, payload)
	if !snap.Started {
		action.MarkStarted()
	}
	if result.OK {
		e.armInterval(action)
	}
	return result
}

// scheduleDelayed defers an action's first execution by Config.Delay,
// returning a provisional response (spec §3: "delay (ms, first-
// execution offset)"; not one of the ten named protection stages, so
// it is handled at the engine level around the dispatcher rather than
// as a compiled pipeline stage).
func (e *Engine) scheduleDelayed(action *registry.Action, payload any) response.Response {
	id := action.Config.ID
	action.MarkStarted()
	_, err := e.Wheel.Keep(action.Config.Delay, func() {
		result := e.Dispatcher.Call(id, payload)
		if result.OK {
			e.armInterval(action)
		}
	}, clock.Once(), "delay-"+id)
	if err != nil {
		return response.Fail(response.CategoryTimerError, "failed to arm delay timer", err)
	}
	return response.WithMetadata(
		response.Ok(nil, fmt.Sprintf("delayed, will execute in %dms", action.Config.Delay.Milliseconds())),
		response.Metadata{ActionID: id, DelayMS: action.Config.Delay.Milliseconds()},
	)
}

// armInterval arms the next self-repeat firing for an action with
// Interval+Repeat configured, if firings remain (spec §3: "interval
// (ms, requires repeat)"). Each firing re-enters the normal call path
// with the last payload, so it is subject to the wheel's stress
// scaling like any other periodic timer.
func (e *Engine) armInterval(action *registry.Action) {
	cfg := action.Config
	if cfg.Interval <= 0 || cfg.Repeat == nil {
		return
	}

	id := cfg.ID
	switch cfg.Repeat.Kind {
	case registry.RepeatPolicyCount:
		if action.DecrementRepeatRemaining() <= 0 {
			return
		}
	case registry.RepeatPolicyInfinite:
		// no bookkeeping needed
	default:
		return
	}

	timerID := "interval-" + id
	_, err := e.Wheel.Keep(cfg.Interval, func() {
		action.ClearIntervalTimerID()
		last, _ := e.Payloads.Current(id)
		result := e.Dispatcher.Call(id, last)
		if result.OK {
			e.armInterval(action)
		}
	}, clock.Once(), timerID)
	if err != nil {
		e.Sink.Emit(sensor.New(sensor.LevelError, id, sensor.PhaseTimerRunaway, err.Error(), uuidZero()))
		return
	}
	action.SetIntervalTimerID(timerID)
}

// Forget removes id's registry entry, handler, timers, buffer,
// payload, and metrics in one step (spec §4.B). Any pending interval
// timer is cancelled too: without this, forgetting an action mid-
// interval and re-registering the same id would leave the orphaned
// timer to fire later against the new registration.
func (e *Engine) Forget(id string) bool {
	e.Wheel.Forget("debounce-" + id)
	e.Wheel.Forget("buffer-" + id)
	e.Wheel.Forget("delay-" + id)
	if action, ok := e.Registry.Get(id); ok {
		if timerID := action.GetIntervalTimerID(); timerID != "" {
			e.Wheel.Forget(timerID)
			action.ClearIntervalTimerID()
		}
	}
	e.Subscribers.Forget(id)
	e.Payloads.Forget(id)
	e.Buffers.Forget(id)
	return e.Registry.Forget(id)
}

// Clear destroys every registered channel and its associated state.
func (e *Engine) Clear() {
	e.Registry.Clear()
	e.Subscribers.Clear()
	e.Payloads.Clear()
	e.Buffers.Clear()
}

// Pause freezes id's timers (or every timer, if id is empty).
func (e *Engine) Pause(id string) error { return e.Wheel.Pause(id) }

// Resume reactivates id's timers (or every paused timer, if id is
// empty).
func (e *Engine) Resume(id string) error { return e.Wheel.Resume(id) }

// Lock prevents further Action registrations; in-flight calls against
// already-registered channels are unaffected.
func (e *Engine) Lock() {
	e.mu.Lock()
	e.locked = true
	e.mu.Unlock()
}

// Unlock reverses Lock.
func (e *Engine) Unlock() {
	e.mu.Lock()
	e.locked = false
	e.mu.Unlock()
}

// Get returns id's current payload, if any.
func (e *Engine) Get(id string) (any, bool) { return e.Payloads.Current(id) }

// GetPrevious returns the payload before the most recent successful
// invocation of id, if any.
func (e *Engine) GetPrevious(id string) (any, bool) { return e.Payloads.Previous(id) }

// HasChanged reports whether payload differs from id's current value.
func (e *Engine) HasChanged(id string, payload any) bool { return e.Payloads.HasChanged(id, payload) }

// Status reports true iff the engine is hibernating (spec §4.K).
func (e *Engine) Status() bool { return e.Wheel.Hibernating() }

// IsLocked reports whether Lock has been called without a matching
// Unlock.
func (e *Engine) IsLocked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.locked
}

// IsInitialized reports whether Init has run.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Shutdown hibernates the wheel and clears all in-memory state (spec
// §5 "shutdown hibernates the wheel and clears all in-memory state").
func (e *Engine) Shutdown() response.Response {
	e.mu.Lock()
	e.initialized = false
	e.mu.Unlock()

	e.Wheel.Hibernate()
	e.Clear()
	e.Sink.Emit(sensor.New(sensor.LevelSys, "system", sensor.PhaseSystemShutdown, nil, uuidZero()))
	return response.Ok(nil, "cyre shutdown")
}

// Reset is the dual of Shutdown's hibernation: it re-enables
// scheduling so Init can be called again.
func (e *Engine) Reset() {
	e.Wheel.Reset()
}

// GracefulShutdown waits out drain before calling Shutdown, mirroring
// the teacher's worker-pool drain posture. The engine has no explicit
// in-flight counter (handler invocation is synchronous per call in
// this port), so the wait is a fixed pause of the full drain that lets
// already scheduled timer callbacks run; it does not end early when
// they finish. drain <= 0, or a wheel with no timer other than the
// breathing tick, shuts down immediately. The wait itself is armed
// through e.Clock rather than time.Sleep, so it fires synchronously
// under a virtual clock's Advance instead of needing a real sleep.
func (e *Engine) GracefulShutdown(drain time.Duration) response.Response {
	pending := e.Wheel.Active()
	if _, ok := e.Wheel.Get(BreathingTimerID); ok {
		pending--
	}
	if drain <= 0 || pending == 0 {
		return e.Shutdown()
	}
	done := make(chan struct{})
	e.Clock.AfterFunc(drain, func() { close(done) })
	<-done
	return e.Shutdown()
}
