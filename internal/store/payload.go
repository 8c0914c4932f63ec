package store

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the number of distinct channel ids the
// PayloadStore will track before evicting the least recently touched
// entry. It is generous enough that any process with a bounded,
// intentionally-registered set of channels never evicts a live entry;
// it exists for long-running processes that churn through many
// short-lived, forgotten-then-recreated ids, the same "bounded cache"
// concern the teacher reaches for golang-lru to solve.
const DefaultCapacity = 100_000

type payloadEntry struct {
	current   any
	hasValue  bool
	previous  any
	hasPrevious bool
}

// PayloadStore holds the current and previous payload for every
// channel id (spec §4.C). Only the dispatcher writes to it, and only
// after a successful handler invocation.
type PayloadStore struct {
	mu    sync.RWMutex
	cache *lru.Cache[string, *payloadEntry]
}

// NewPayloadStore creates a PayloadStore with DefaultCapacity entries.
func NewPayloadStore() *PayloadStore {
	c, _ := lru.New[string, *payloadEntry](DefaultCapacity)
	return &PayloadStore{cache: c}
}

// Commit records payload as the new current value for id, moving the
// prior current value to previous. It must only be called after a
// successful handler invocation (spec §3 invariant 4), with the
// payload actually observed by the handler.
func (s *PayloadStore) Commit(id string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.cache.Get(id)
	if !ok {
		e = &payloadEntry{}
		s.cache.Add(id, e)
	}
	if e.hasValue {
		e.previous = e.current
		e.hasPrevious = true
	}
	e.current = payload
	e.hasValue = true
}

// Current returns the current payload for id and whether one exists.
func (s *PayloadStore) Current(id string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache.Get(id)
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.current, true
}

// Previous returns the payload before the most recent successful
// invocation, and whether one exists.
func (s *PayloadStore) Previous(id string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache.Get(id)
	if !ok || !e.hasPrevious {
		return nil, false
	}
	return e.previous, true
}

// HasChanged reports whether payload differs from the current stored
// value for id. A missing current value always counts as changed
// (spec §4.C: "true iff the current slice is absent or structurally
// unequal to payload").
func (s *PayloadStore) HasChanged(id string, payload any) bool {
	current, ok := s.Current(id)
	if !ok {
		return true
	}
	return !Equal(current, payload)
}

// Forget removes all payload history for id.
func (s *PayloadStore) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(id)
}

// Clear removes every tracked id.
func (s *PayloadStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}
