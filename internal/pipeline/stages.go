package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cyreio/cyre-go/internal/clock"
	"github.com/cyreio/cyre-go/internal/registry"
	"github.com/cyreio/cyre-go/internal/response"
	"github.com/cyreio/cyre-go/internal/store"
	"github.com/cyreio/cyre-go/pkg/sensor"
)

// Deps bundles the collaborators stage builders close over. All of
// them are process-wide (or per-engine-instance) singletons, per spec
// §9 "Global mutable state."
type Deps struct {
	Wheel        *clock.Wheel
	Clock        clock.Clock
	BufferStore  *store.BufferStore
	PayloadStore *store.PayloadStore
	Sink         sensor.Sink
}

func (d Deps) sink() sensor.Sink {
	if d.Sink == nil {
		return sensor.NoopSink{}
	}
	return d.Sink
}

// repeatZeroStage is defensive: Validate already blocks repeat:0
// actions at registration (they never reach a compiled pipeline at
// all), so in practice this stage only fires if an action's repeat
// policy is mutated after compilation without going through Validate
// again. Kept for parity with spec §4.H stage #2.
func repeatZeroStage() StageFunc {
	return func(action *registry.Action, callID string, payload any, next Next) response.Response {
		if p := action.Config.Repeat; p != nil && p.Kind == registry.RepeatPolicyZero {
			return response.Fail(response.CategoryConfigBlocked, "action registered but not executed", nil)
		}
		return next(payload)
	}
}

// throttleStage implements the hard-cooldown semantics of spec §4.H.3:
// the first call always passes; a call inside the cooldown window is
// rejected without reaching the handler. _lastExecTime itself is set
// by the dispatcher's terminal continuation after a successful
// handler invocation (spec §4.I step 6), not here, so the clock only
// advances on actual executions (including failed ones — see
// internal/dispatch's invoker, spec §4.J).
func throttleStage(duration time.Duration, clk clock.Clock, sink sensor.Sink) StageFunc {
	return func(action *registry.Action, callID string, payload any, next Next) response.Response {
		snap := action.Snapshot()
		if !snap.LastExecTime.IsZero() {
			elapsed := clk.Now().Sub(snap.LastExecTime)
			if elapsed < duration {
				remaining := duration - elapsed
				sink.Emit(sensor.New(sensor.LevelInfo, action.Config.ID, sensor.PhaseThrottleBlocked, remaining, uuid.Nil))
				return response.Fail(response.CategoryGateBlocked,
					fmt.Sprintf("throttled, %dms remaining", remaining.Milliseconds()), nil)
			}
		}
		return next(payload)
	}
}

// debounceStage implements spec §4.H.4: coalesce rapid calls into one
// trailing execution, with an optional maxWait escape hatch that
// forces a flush once the window has stretched too long.
func debounceStage(duration, maxWait time.Duration, d Deps) StageFunc {
	return func(action *registry.Action, callID string, payload any, next Next) response.Response {
		id := action.Config.ID
		timerID := "debounce-" + id
		sink := d.sink()

		d.Wheel.Forget(timerID)
		d.BufferStore.Set(id, payload)

		snap := action.Snapshot()
		if maxWait > 0 && !snap.DebounceStart.IsZero() {
			if d.Clock.Now().Sub(snap.DebounceStart) >= maxWait {
				entry, _ := d.BufferStore.Get(id)
				d.BufferStore.Forget(id)
				action.ClearDebounceStart()
				sink.Emit(sensor.New(sensor.LevelInfo, id, sensor.PhaseDebounceFlushed, "maxWait", uuid.Nil))
				return next(entry.Overwrite)
			}
		}
		if snap.DebounceStart.IsZero() {
			action.SetDebounceStart(d.Clock.Now())
		}

		_, err := d.Wheel.Keep(duration, func() {
			entry, _ := d.BufferStore.Get(id)
			d.BufferStore.Forget(id)
			action.ClearDebounceStart()
			next(entry.Overwrite)
		}, clock.Once(), timerID)
		if err != nil {
			return response.Fail(response.CategoryTimerError, "failed to arm debounce timer", err)
		}

		sink.Emit(sensor.New(sensor.LevelDebug, id, sensor.PhaseDebounceArmed, duration, uuid.Nil))
		return response.Ok(nil, fmt.Sprintf("debounced, will execute in %dms", duration.Milliseconds()))
	}
}

// bufferStage implements spec §4.H.5: accumulate payloads for a fixed
// window using the declared combination strategy.
func bufferStage(window time.Duration, strategy registry.BufferStrategy, d Deps) StageFunc {
	return func(action *registry.Action, callID string, payload any, next Next) response.Response {
		id := action.Config.ID
		timerID := "buffer-" + id
		sink := d.sink()

		if strategy == registry.BufferAppend {
			d.BufferStore.Append(id, payload)
		} else {
			d.BufferStore.Set(id, payload)
		}

		if _, exists := d.Wheel.Get(timerID); !exists {
			_, err := d.Wheel.Keep(window, func() {
				entry, _ := d.BufferStore.Get(id)
				d.BufferStore.Forget(id)
				var deliver any
				if strategy == registry.BufferAppend {
					deliver = entry.Append
				} else {
					deliver = entry.Overwrite
				}
				next(deliver)
			}, clock.Once(), timerID)
			if err != nil {
				return response.Fail(response.CategoryTimerError, "failed to arm buffer timer", err)
			}
			sink.Emit(sensor.New(sensor.LevelDebug, id, sensor.PhaseBufferArmed, window, uuid.Nil))
		}

		return response.Ok(nil, fmt.Sprintf("buffered, will execute in %dms", window.Milliseconds()))
	}
}

// schemaStage implements spec §4.H.6.
func schemaStage(validate registry.SchemaFunc) StageFunc {
	return func(action *registry.Action, callID string, payload any, next Next) response.Response {
		if err := validate(payload); err != nil {
			return response.Fail(response.CategoryValidationFailed, "schema validation failed", err)
		}
		return next(payload)
	}
}

// conditionStage implements spec §4.H.7: false is a clean, ok:true
// short-circuit, not an error.
func conditionStage(cond registry.ConditionFunc) StageFunc {
	return func(action *registry.Action, callID string, payload any, next Next) response.Response {
		if !cond(payload) {
			return response.Ok(payload, "condition not satisfied")
		}
		return next(payload)
	}
}

// selectorStage implements spec §4.H.8.
func selectorStage(sel registry.SelectorFunc) StageFunc {
	return func(action *registry.Action, callID string, payload any, next Next) response.Response {
		projected, err := sel(payload)
		if err != nil {
			return response.Fail(response.CategoryValidationFailed, "selector failed", err)
		}
		return next(projected)
	}
}

// transformStage implements spec §4.H.9.
func transformStage(tr registry.TransformFunc) StageFunc {
	return func(action *registry.Action, callID string, payload any, next Next) response.Response {
		mapped, err := tr(payload)
		if err != nil {
			return response.Fail(response.CategoryValidationFailed, "transform failed", err)
		}
		return next(mapped)
	}
}

// changeDetectionStage implements spec §4.H.10.
func changeDetectionStage(payloads *store.PayloadStore) StageFunc {
	return func(action *registry.Action, callID string, payload any, next Next) response.Response {
		if !payloads.HasChanged(action.Config.ID, payload) {
			return response.Ok(payload, "no change, skipped")
		}
		return next(payload)
	}
}
