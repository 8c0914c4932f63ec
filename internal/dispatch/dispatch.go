// Package dispatch implements the call-path entry point (spec §4.I)
// and handler invocation (spec §4.J): id validation, admission gates,
// pipeline execution, and intra-link follow-on calls.
package dispatch

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cyreio/cyre-go/internal/breathing"
	"github.com/cyreio/cyre-go/internal/clock"
	"github.com/cyreio/cyre-go/internal/pipeline"
	"github.com/cyreio/cyre-go/internal/registry"
	"github.com/cyreio/cyre-go/internal/response"
	"github.com/cyreio/cyre-go/internal/store"
	"github.com/cyreio/cyre-go/internal/subscriber"
	"github.com/cyreio/cyre-go/pkg/sensor"
)

// DefaultLinkDepth is the intra-link chain bound spec §4.I and §8 name
// explicitly ("depth exactly 64 succeed; depth 65 fails").
const DefaultLinkDepth = 64

// Dispatcher wires every collaborator the call path touches. One
// Dispatcher belongs to exactly one engine instance (spec §9 "an
// implementation may encapsulate [the singletons] behind a single
// engine object").
type Dispatcher struct {
	Registry     *registry.Registry
	Subscribers  *subscriber.Table
	Breathing    *breathing.Controller
	Payloads     *store.PayloadStore
	Wheel        *clock.Wheel
	Clock        clock.Clock
	Sink         sensor.Sink
	LinkMaxDepth int
}

func (d *Dispatcher) sink() sensor.Sink {
	if d.Sink == nil {
		return sensor.NoopSink{}
	}
	return d.Sink
}

func (d *Dispatcher) linkMaxDepth() int {
	if d.LinkMaxDepth <= 0 {
		return DefaultLinkDepth
	}
	return d.LinkMaxDepth
}

// Call is the public entry point: call(id, payload) -> Response (spec
// §4.I).
func (d *Dispatcher) Call(id string, payload any) response.Response {
	return d.call(id, payload, 0, uuid.New())
}

func (d *Dispatcher) call(id string, payload any, depth int, correlation uuid.UUID) response.Response {
	if id == "" {
		return response.Fail(response.CategoryNotRegistered, "action id must not be empty", nil)
	}

	action, ok := d.Registry.Get(id)
	if !ok {
		return response.Fail(response.CategoryNotRegistered, fmt.Sprintf("action %q is not registered", id), nil)
	}

	if action.IsBlocked {
		return response.Fail(response.CategoryConfigBlocked, fmt.Sprintf("blocked: %s", action.BlockReason), nil)
	}

	critical := action.Config.Priority == registry.PriorityCritical
	if !d.Breathing.Admit(critical) {
		d.sink().Emit(sensor.New(sensor.LevelWarn, id, sensor.PhaseRecuperating, nil, correlation))
		return response.Fail(response.CategoryGateBlocked, "system recuperating", nil)
	}

	if payload == nil {
		payload = action.Config.Payload
	}

	compiled, _ := action.CompiledPipeline.(*pipeline.Compiled)
	terminal := d.terminal(action, depth, correlation)
	if compiled == nil || compiled.HasFastPath {
		return terminal(payload)
	}
	return compiled.Run(action, correlation.String(), payload, terminal)
}

// terminal builds the continuation that ends a compiled chain (or is
// called directly on the fast path): invoke the handler, update
// derived action state, and chase any intra-link (spec §4.I steps
// 6-7, §4.J).
func (d *Dispatcher) terminal(action *registry.Action, depth int, correlation uuid.UUID) pipeline.Next {
	return func(payload any) response.Response {
		id := action.Config.ID
		handler, ok := d.Subscribers.Get(id)
		if !ok {
			return response.Fail(response.CategoryNotRegistered, fmt.Sprintf("no handler registered for %q", id), nil)
		}

		start := d.Clock.Now()
		result, err := invoke(handler, payload, action.Config.Timeout)
		now := d.Clock.Now()
		action.SetLastExecTime(now)
		action.AddDuration(now.Sub(start))

		if err != nil {
			action.IncrementErrors()
			d.Breathing.RecordCall(false)
			if err == errHandlerTimeout {
				d.sink().Emit(sensor.New(sensor.LevelError, id, sensor.PhaseHandlerTimeout, nil, correlation))
				return response.Fail(response.CategoryHandlerTimeout, "execution timeout", err)
			}
			d.sink().Emit(sensor.New(sensor.LevelError, id, sensor.PhaseHandlerError, err.Error(), correlation))
			return response.Fail(response.CategoryHandlerError, "handler error", err)
		}

		action.IncrementExecutions()
		d.Breathing.RecordCall(true)
		d.Payloads.Commit(id, payload)
		d.sink().Emit(sensor.New(sensor.LevelSuccess, id, sensor.PhaseHandlerSuccess, nil, correlation))

		resp := response.Ok(result.value, "executed")
		if result.isLink {
			if depth+1 > d.linkMaxDepth() {
				d.sink().Emit(sensor.New(sensor.LevelError, id, sensor.PhaseLinkDepthExceeded, depth+1, correlation))
				return response.Fail(response.CategoryLinkDepthExceeded, "intra-link depth exceeded", nil)
			}
			d.call(result.link.ID, result.link.Payload, depth+1, correlation)
		}
		return resp
	}
}
