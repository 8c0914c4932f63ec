package clock

import (
	"sync"
	"time"
)

// Status is a Timer's pause state, toggled by Wheel.Pause/Resume.
type Status int

const (
	StatusActive Status = iota
	StatusPaused
)

func (s Status) String() string {
	if s == StatusPaused {
		return "paused"
	}
	return "active"
}

// RepeatKind classifies a Timer's firing count policy (spec §4.A).
type RepeatKind int

const (
	// RepeatOnceKind fires exactly once.
	RepeatOnceKind RepeatKind = iota
	// RepeatCountKind fires a fixed positive number of times.
	RepeatCountKind
	// RepeatInfiniteKind fires until forgotten or the wheel hibernates.
	RepeatInfiniteKind
	// RepeatNeverKind never fires; Keep rejects it (repeat: 0 in the
	// action config is a registration-time block, not a timer).
	RepeatNeverKind
)

// Repeat describes how many times a kept callback should fire.
type Repeat struct {
	Kind  RepeatKind
	Count int64 // meaningful only when Kind == RepeatCountKind
}

func Once() Repeat         { return Repeat{Kind: RepeatOnceKind} }
func Never() Repeat        { return Repeat{Kind: RepeatNeverKind} }
func Infinite() Repeat     { return Repeat{Kind: RepeatInfiniteKind} }
func Count(n int64) Repeat { return Repeat{Kind: RepeatCountKind, Count: n} }

// Metrics tracks a Timer's own firing history, surfaced through
// getMetrics-shaped reports by callers that hold the id.
type Metrics struct {
	TotalFires       int64
	LastFireDuration time.Duration
	RunawayTerminated bool
}

// RunawayCeiling is the defensive execution-count limit from spec §4.A:
// a timer that somehow fires more than this many times is terminated
// and reported, rather than allowed to run forever on a bad config.
const RunawayCeiling = 10_000

// Timer is owned exclusively by the Wheel. Other components hold only
// its string Id and cancel it by calling Wheel.Forget.
type Timer struct {
	mu sync.Mutex

	ID               string
	StartTime        time.Time
	Duration         time.Duration // current (possibly sharded) firing interval
	OriginalDuration time.Duration
	Repeat           Repeat
	ExecutionCount   int64
	NextExecutionTime time.Time
	Status           Status
	Metrics          Metrics

	callback func()
	wheel    *Wheel
	pending  Cancelable // the live shard/firing scheduled with the clock
	residual time.Duration // remaining duration when paused
}

func (t *Timer) snapshot() Timer {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := *t
	cp.mu = sync.Mutex{}
	return cp
}
