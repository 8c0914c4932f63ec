// Package sensor is Cyre's event sink: a small, transport-agnostic
// telemetry interface the core emits through (spec §6 "Event sink").
// The core never depends on a concrete transport; NoopSink, SlogSink,
// and Bus are collaborators built on top of the same Sink interface.
package sensor

import (
	"time"

	"github.com/google/uuid"
)

// Level is the event sink's severity vocabulary (spec §6).
type Level string

const (
	LevelDebug    Level = "debug"
	LevelInfo     Level = "info"
	LevelSuccess  Level = "success"
	LevelWarn     Level = "warn"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
	LevelSys      Level = "sys"
)

// Common phase names, covering the examples spec §6 names explicitly
// plus the rest of the call path. Sinks are free to handle phases they
// don't recognize; this is a vocabulary, not an enum the sink must
// switch over exhaustively.
const (
	PhaseSystemInit        = "system-initialization"
	PhaseSystemShutdown    = "system-shutdown"
	PhasePipelineCompiled  = "pipeline-compiled"
	PhaseActionRegistered  = "action-registered"
	PhaseActionBlocked     = "action-blocked"
	PhaseActionRejected    = "action-rejected"
	PhaseHandlerReplaced   = "handler-replaced"
	PhaseThrottleBlocked   = "throttle-blocked"
	PhaseDebounceArmed     = "debounce-armed"
	PhaseDebounceFlushed   = "debounce-flushed"
	PhaseBufferArmed       = "buffer-armed"
	PhaseBufferFlushed     = "buffer-flushed"
	PhaseRecuperating      = "recuperating"
	PhaseSchemaFailed      = "schema-failed"
	PhaseConditionFailed   = "condition-failed"
	PhaseNoChange          = "no-change"
	PhaseHandlerError      = "handler-error"
	PhaseHandlerTimeout    = "handler-timeout"
	PhaseHandlerSuccess    = "handler-success"
	PhaseLinkDepthExceeded = "link-depth-exceeded"
	PhaseBreathingUpdate   = "breathing-update"
	PhaseTimerRunaway      = "timer-runaway"
)

// Event is one sensor notification. Payload is whatever structured
// detail the emitting component wants attached (a response, a
// duration, a config diff); sinks that serialize must handle arbitrary
// values defensively.
type Event struct {
	Level         Level
	Subject       string // channel id, or "system"
	Phase         string
	Payload       any
	CorrelationID uuid.UUID
	Time          time.Time
}

// Sink receives sensor events. Implementations must not block the
// caller for long; the dispatcher and pipeline stages call Emit
// synchronously on the call path.
type Sink interface {
	Emit(Event)
}

// NoopSink discards every event. It is the default when no sink is
// configured, matching spec §6: "a no-op sink must be acceptable."
type NoopSink struct{}

func (NoopSink) Emit(Event) {}

// New builds an Event with Time set to now and a fresh correlation id
// if correlation is the zero UUID.
func New(level Level, subject, phase string, payload any, correlation uuid.UUID) Event {
	if correlation == uuid.Nil {
		correlation = uuid.New()
	}
	return Event{
		Level:         level,
		Subject:       subject,
		Phase:         phase,
		Payload:       payload,
		CorrelationID: correlation,
		Time:          time.Now(),
	}
}
