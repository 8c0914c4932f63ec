// Package subscriber holds the single handler registered for each
// channel id (spec §4.E).
package subscriber

import "sync"

// Handler is invoked with the (possibly selected/transformed) payload
// and returns a result or an error. Asynchronous handlers in the
// source language become ordinary blocking Go functions here; callers
// that need concurrency run their own goroutine and communicate back
// through a channel before returning, same as any other blocking Go
// handler.
type Handler func(payload any) (any, error)

// ReplaceNotifier is called when On replaces an existing handler for
// an id, so the caller can emit the "replaced, logged a warning"
// diagnostic spec §3 invariant 2 requires.
type ReplaceNotifier func(id string)

// Table is the process-wide (or per-engine) map of channel id to its
// sole handler. Grounded on internal/realtime.DefaultEventBus's
// subscribers map: same map+RWMutex shape, narrowed to one entry per
// key instead of a set.
type Table struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	onReplace ReplaceNotifier
}

// New creates an empty Table. onReplace may be nil.
func New(onReplace ReplaceNotifier) *Table {
	return &Table{
		handlers:  make(map[string]Handler),
		onReplace: onReplace,
	}
}

// On registers handler as the sole handler for id, replacing and
// diagnosing any prior registration (spec §3 invariant 2).
func (t *Table) On(id string, handler Handler) {
	t.mu.Lock()
	_, existed := t.handlers[id]
	t.handlers[id] = handler
	t.mu.Unlock()

	if existed && t.onReplace != nil {
		t.onReplace(id)
	}
}

// Get returns id's handler, if any.
func (t *Table) Get(id string) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[id]
	return h, ok
}

// Forget removes id's handler.
func (t *Table) Forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, id)
}

// Clear removes every handler.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = make(map[string]Handler)
}

// Len reports how many handlers are registered.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}
