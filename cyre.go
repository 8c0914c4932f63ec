// Package cyre is an in-process reactive action dispatcher: named
// channels carry an independent protection pipeline (throttle,
// debounce, buffered windows, change detection, schema/condition/
// selector/transform) plus lifecycle scheduling (delay, interval,
// repeat), mediated by an adaptive "breathing" stress controller that
// gates admission process-wide (spec §1).
//
// A default, package-level instance is ready to use via the top-level
// functions in default.go. Call New to build an independent instance,
// e.g. for tests that must not share state with other tests.
package cyre

import (
	"time"

	"github.com/cyreio/cyre-go/internal/clock"
	"github.com/cyreio/cyre-go/internal/dispatch"
	"github.com/cyreio/cyre-go/internal/engine"
	"github.com/cyreio/cyre-go/internal/registry"
	"github.com/cyreio/cyre-go/internal/response"
	"github.com/cyreio/cyre-go/internal/subscriber"
	"github.com/cyreio/cyre-go/pkg/metrics"
	"github.com/cyreio/cyre-go/pkg/sensor"
)

// Config is a channel's registration configuration (spec §3).
type Config = registry.Config

// Priority is a channel's admission priority (spec §3). Only
// PriorityCritical bypasses the breathing controller's recuperation
// gate.
type Priority = registry.Priority

const (
	PriorityCritical   = registry.PriorityCritical
	PriorityHigh       = registry.PriorityHigh
	PriorityMedium     = registry.PriorityMedium
	PriorityLow        = registry.PriorityLow
	PriorityBackground = registry.PriorityBackground
)

// BufferConfig and BufferStrategy configure a channel's buffer window
// (spec §3, §4.H.5).
type BufferConfig = registry.BufferConfig
type BufferStrategy = registry.BufferStrategy

const (
	BufferOverwrite = registry.BufferOverwrite
	BufferAppend    = registry.BufferAppend
)

// RepeatPolicy configures a channel's self-repeat lifecycle (spec §3
// "interval (ms, requires repeat), repeat").
type RepeatPolicy = registry.RepeatPolicy
type RepeatPolicyKind = registry.RepeatPolicyKind

const (
	RepeatNone     = registry.RepeatPolicyNone
	RepeatZero     = registry.RepeatPolicyZero
	RepeatCount    = registry.RepeatPolicyCount
	RepeatInfinite = registry.RepeatPolicyInfinite
)

// SchemaFunc, ConditionFunc, SelectorFunc, and TransformFunc are the
// pipeline stage hooks a Config may carry (spec §4.H.6-9).
type SchemaFunc = registry.SchemaFunc
type ConditionFunc = registry.ConditionFunc
type SelectorFunc = registry.SelectorFunc
type TransformFunc = registry.TransformFunc

// Handler is a channel's sole consumer (spec §4.E). It returns either
// a plain value or a LinkResult to trigger a follow-on call.
type Handler = subscriber.Handler

// LinkResult is a handler's intra-link return value (spec §9).
type LinkResult = dispatch.LinkResult

// Response is the stable record every Call and Action returns (spec
// §6).
type Response = response.Response

// Category classifies a Response's Error field when OK is false (spec
// §7).
type Category = response.Category

const (
	CategoryConfigRejected    = response.CategoryConfigRejected
	CategoryConfigBlocked     = response.CategoryConfigBlocked
	CategoryNotRegistered     = response.CategoryNotRegistered
	CategoryGateBlocked       = response.CategoryGateBlocked
	CategoryValidationFailed  = response.CategoryValidationFailed
	CategoryHandlerError      = response.CategoryHandlerError
	CategoryHandlerTimeout    = response.CategoryHandlerTimeout
	CategoryLinkDepthExceeded = response.CategoryLinkDepthExceeded
	CategoryTimerError        = response.CategoryTimerError
	CategorySystemError       = response.CategorySystemError
)

// Sink, Event, and Level are the event-sink telemetry types (spec
// §6). Implement Sink to receive every non-trivial call-path event.
type Sink = sensor.Sink
type Event = sensor.Event
type Level = sensor.Level

const (
	LevelDebug    = sensor.LevelDebug
	LevelInfo     = sensor.LevelInfo
	LevelSuccess  = sensor.LevelSuccess
	LevelWarn     = sensor.LevelWarn
	LevelError    = sensor.LevelError
	LevelCritical = sensor.LevelCritical
	LevelSys      = sensor.LevelSys
)

// Option configures a new Instance.
type Option func(*engine.Options)

// WithSink attaches a telemetry sink. The default is a no-op sink.
func WithSink(sink Sink) Option {
	return func(o *engine.Options) { o.Sink = sink }
}

// WithBreathingCapacity sets the calls/sec above which the breathing
// controller's rate component of stress saturates (spec §4.F).
func WithBreathingCapacity(capacity float64) Option {
	return func(o *engine.Options) { o.BreathingCapacity = capacity }
}

// WithLinkMaxDepth overrides the intra-link chain bound (default 64,
// spec §8).
func WithLinkMaxDepth(depth int) Option {
	return func(o *engine.Options) { o.LinkMaxDepth = depth }
}

// Instance is one independent Cyre engine (spec §9: "an implementation
// may encapsulate [the singletons] behind a single engine object to
// enable multiple independent instances for testing").
type Instance struct {
	eng     *engine.Engine
	virtual *clock.Virtual
}

// New builds an independent Instance over the real wall clock.
func New(opts ...Option) *Instance {
	var o engine.Options
	for _, opt := range opts {
		opt(&o)
	}
	return &Instance{eng: engine.New(o)}
}

// NewTestInstance builds an Instance over a virtual clock starting at
// t0. This is the only way to get a virtual clock through the public
// API; the CYRE_TEST_MODE environment variable is not read.
// Advance drives that clock forward; it is a no-op on a real-clock
// Instance.
func NewTestInstance(t0 time.Time, opts ...Option) *Instance {
	vc := clock.NewVirtual(t0)
	all := make([]Option, 0, len(opts)+1)
	all = append(all, func(o *engine.Options) { o.Clock = vc })
	all = append(all, opts...)
	inst := New(all...)
	inst.virtual = vc
	return inst
}

// Advance moves a test instance's virtual clock forward by d, firing
// every timer callback due at or before the new time. No-op on a
// real-clock Instance.
func (i *Instance) Advance(d time.Duration) {
	if i.virtual != nil {
		i.virtual.Advance(d)
	}
}

// Init idempotently arms the breathing tick and marks the instance
// initialized (spec §4.K).
func (i *Instance) Init() Response { return i.eng.Init() }

// Action registers or replaces a channel (spec §4.G).
func (i *Instance) Action(cfg Config) Response { return i.eng.Action(cfg) }

// Actions registers each cfg in order, mirroring spec §4.K's
// "action(cfg | cfg[])".
func (i *Instance) Actions(cfgs []Config) []Response {
	out := make([]Response, len(cfgs))
	for idx, cfg := range cfgs {
		out[idx] = i.eng.Action(cfg)
	}
	return out
}

// On registers the sole handler for id, replacing (and diagnosing) any
// prior registration (spec §3 invariant 2).
func (i *Instance) On(id string, handler Handler) { i.eng.On(id, handler) }

// Call dispatches id with an optional payload (spec §4.I). Omitting
// payload falls back to the channel's seed Config.Payload.
func (i *Instance) Call(id string, payload ...any) Response {
	var p any
	if len(payload) > 0 {
		p = payload[0]
	}
	return i.eng.Call(id, p)
}

// Forget removes id's registration, handler, timers, buffer, and
// payload history in one step (spec §4.B).
func (i *Instance) Forget(id string) bool { return i.eng.Forget(id) }

// Clear destroys every registered channel (spec §4.K).
func (i *Instance) Clear() { i.eng.Clear() }

// Pause freezes id's timers, or every timer if id is empty.
func (i *Instance) Pause(id string) error { return i.eng.Pause(id) }

// Resume reactivates id's timers, or every paused timer if id is
// empty.
func (i *Instance) Resume(id string) error { return i.eng.Resume(id) }

// Lock prevents further Action registrations. Calls against
// already-registered channels are unaffected.
func (i *Instance) Lock() { i.eng.Lock() }

// Unlock reverses Lock.
func (i *Instance) Unlock() { i.eng.Unlock() }

// IDs returns every currently registered channel id, sorted. Used by
// snapshot.Capture to enumerate what to persist.
func (i *Instance) IDs() []string { return i.eng.Registry.IDs() }

// ChannelMetrics returns id's execution report (spec §6
// "getMetrics(id)"). ok is false if id is not registered.
func (i *Instance) ChannelMetrics(id string) (metrics.ChannelReport, bool) {
	return metrics.Channel(i.eng.Registry, id)
}

// Metrics returns the process-wide report (spec §6 "getMetrics()"):
// aggregate call/error counters plus the breathing controller's
// current stress snapshot and the wheel's active timer count.
func (i *Instance) Metrics() metrics.SystemReport {
	return metrics.System(i.eng.Registry, i.eng.Breathing, i.eng.Wheel)
}

// HealthReport is a superset-safe snapshot of the instance's
// operational state, meant for dashboards and liveness probes rather
// than hot-path decisions.
type HealthReport struct {
	Hibernating  bool
	Locked       bool
	Initialized  bool
	Pattern      string
	Recuperating bool
	TimersActive int
	RegistrySize int
}

// Health returns the instance's current operational snapshot, composed
// from the same collaborators Metrics reads.
func (i *Instance) Health() HealthReport {
	sys := i.eng.Breathing.Snapshot()
	return HealthReport{
		Hibernating:  i.eng.Status(),
		Locked:       i.eng.IsLocked(),
		Initialized:  i.eng.IsInitialized(),
		Pattern:      string(sys.Pattern),
		Recuperating: sys.IsRecuperating,
		TimersActive: i.eng.Wheel.Active(),
		RegistrySize: i.eng.Registry.Len(),
	}
}

// Get returns id's current payload, if any (spec §4.C).
func (i *Instance) Get(id string) (any, bool) { return i.eng.Get(id) }

// GetPrevious returns the payload before id's most recent successful
// invocation, if any.
func (i *Instance) GetPrevious(id string) (any, bool) { return i.eng.GetPrevious(id) }

// HasChanged reports whether payload differs structurally from id's
// current stored payload.
func (i *Instance) HasChanged(id string, payload any) bool { return i.eng.HasChanged(id, payload) }

// Status reports true iff the instance is hibernating.
func (i *Instance) Status() bool { return i.eng.Status() }

// Shutdown hibernates the timer wheel and clears all in-memory state.
func (i *Instance) Shutdown() Response { return i.eng.Shutdown() }

// GracefulShutdown waits out drain before shutting down when timers
// other than the breathing tick are pending, and shuts down at once
// otherwise. The wait does not end early when those timers finish.
func (i *Instance) GracefulShutdown(drain time.Duration) Response {
	return i.eng.GracefulShutdown(drain)
}

// Reset re-enables scheduling after Shutdown so Init can be called
// again.
func (i *Instance) Reset() { i.eng.Reset() }
