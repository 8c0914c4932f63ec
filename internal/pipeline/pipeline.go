// Package pipeline compiles an action's configuration into an ordered
// list of protection stages and runs them via continuation passing
// (spec §4.G, §4.H).
//
// Stages compose right-to-left into a single call-time chain: Compile
// produces a Compiled value whose Run method folds the stage list
// around a dispatcher-supplied terminal continuation. A stage that
// arms an asynchronous timer (debounce, buffer) captures that same
// continuation in its timer callback, so when the timer fires later it
// resumes the chain from exactly where it left off — schema onward —
// without re-entering recuperation/throttle/debounce (spec §9
// "Coroutine/async control flow").
package pipeline

import (
	"github.com/cyreio/cyre-go/internal/registry"
	"github.com/cyreio/cyre-go/internal/response"
)

// Next is the continuation a stage calls to proceed to the rest of the
// chain (possibly with a transformed payload). The final Next in any
// chain is the dispatcher's terminal: invoke handler, commit payload
// store, emit sensor events, enqueue intra-links.
type Next func(payload any) response.Response

// StageFunc is one protection stage. It receives the action (for
// reading config and mutating the few dispatcher-owned scalar fields
// via the Action's own synchronized setters), a call correlation id,
// the current payload, and next. The built-in stages do not attach
// that id to the sensor events they emit: they pass uuid.Nil, so each
// such event gets a fresh correlation id from sensor.New.
type StageFunc func(action *registry.Action, callID string, payload any, next Next) response.Response

// Named pairs a StageFunc with the name spec §3 invariant 3 gives it,
// for diagnostics (pipeline-compiled sensor events, metadata).
type Named struct {
	StageName string
	Fn        StageFunc
}

func (n Named) Name() string { return n.StageName }

// Compiled is the Pipeline Compiler's output for one action (spec
// §4.G). An empty Stages slice with HasFastPath true means the
// dispatcher should bypass pipeline machinery entirely.
type Compiled struct {
	HasFastPath bool
	Stages      []Named
}

// Run executes the compiled chain, ending in terminal.
func (c *Compiled) Run(action *registry.Action, callID string, payload any, terminal Next) response.Response {
	next := terminal
	for i := len(c.Stages) - 1; i >= 0; i-- {
		stage := c.Stages[i].Fn
		bound := next
		next = func(p any) response.Response {
			return stage(action, callID, p, bound)
		}
	}
	return next(payload)
}

// StageNames returns the compiled stage names in execution order, for
// diagnostics and tests.
func (c *Compiled) StageNames() []string {
	names := make([]string, 0, len(c.Stages))
	for _, s := range c.Stages {
		names = append(names, s.StageName)
	}
	return names
}
