package cyre

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The scenarios below mirror the worked examples that accompany the
// call dispatcher description: throttle's first pass, debounce
// coalescing, change detection, required+block registration, intra-link
// chaining, and the recuperation gate.

func TestThrottleFirstPassAllowsImmediateCall(t *testing.T) {
	inst := NewTestInstance(time.Unix(0, 0))
	inst.Action(Config{ID: "api-call", Throttle: time.Second})
	count := 0
	inst.On("api-call", func(any) (any, error) {
		count++
		return count, nil
	})

	r1 := inst.Call("api-call")
	require.True(t, r1.OK)
	assert.Equal(t, 1, count)

	r2 := inst.Call("api-call")
	assert.False(t, r2.OK)
	assert.Equal(t, CategoryGateBlocked, r2.Category)
	assert.Equal(t, 1, count, "second call within the window must not reach the handler")

	inst.Advance(1100 * time.Millisecond)
	r3 := inst.Call("api-call")
	assert.True(t, r3.OK)
	assert.Equal(t, 2, count)
}

func TestDebounceCoalescesRapidSearchInput(t *testing.T) {
	inst := NewTestInstance(time.Unix(0, 0))
	var seen []any
	inst.Action(Config{ID: "search", Debounce: 300 * time.Millisecond})
	inst.On("search", func(p any) (any, error) {
		seen = append(seen, p)
		return nil, nil
	})

	inst.Call("search", "g")
	inst.Advance(80 * time.Millisecond)
	inst.Call("search", "go")
	inst.Advance(80 * time.Millisecond)
	inst.Call("search", "go-")
	inst.Advance(80 * time.Millisecond)
	inst.Call("search", "go-lang")

	assert.Empty(t, seen, "handler must not run while calls keep arriving inside the window")

	inst.Advance(400 * time.Millisecond)
	require.Len(t, seen, 1, "only the trailing payload fires, once")
	assert.Equal(t, "go-lang", seen[0])
}

func TestChangeDetectionSkipsIdenticalPayload(t *testing.T) {
	inst := NewTestInstance(time.Unix(0, 0))
	calls := 0
	inst.Action(Config{ID: "sensor-reading", DetectChanges: true})
	inst.On("sensor-reading", func(p any) (any, error) {
		calls++
		return p, nil
	})

	r1 := inst.Call("sensor-reading", map[string]float64{"temp": 21.5})
	assert.True(t, r1.OK)
	assert.Equal(t, 1, calls)

	r2 := inst.Call("sensor-reading", map[string]float64{"temp": 21.5})
	assert.True(t, r2.OK, "an unchanged payload is a clean no-op, not a failure")
	assert.Equal(t, 1, calls)

	r3 := inst.Call("sensor-reading", map[string]float64{"temp": 22.0})
	assert.True(t, r3.OK)
	assert.Equal(t, 2, calls)
}

func TestRequiredAndBlockRegisterButNeverDispatch(t *testing.T) {
	inst := NewTestInstance(time.Unix(0, 0))

	// Required+missing payload and an explicit Block both register
	// cleanly (spec §4.G: Block never rejects registration) but mark
	// the channel non-executable.
	needsPayload := inst.Action(Config{ID: "needs-payload", Required: true})
	assert.True(t, needsPayload.OK)
	called1 := false
	inst.On("needs-payload", func(any) (any, error) { called1 = true; return nil, nil })
	r1 := inst.Call("needs-payload")
	assert.False(t, r1.OK)
	assert.Equal(t, CategoryConfigBlocked, r1.Category)
	assert.False(t, called1)

	called2 := false
	blocked := inst.Action(Config{ID: "maintenance", Block: true, Payload: "seed"})
	assert.True(t, blocked.OK, "a blocked registration still registers, it just never dispatches")
	inst.On("maintenance", func(any) (any, error) { called2 = true; return nil, nil })

	r2 := inst.Call("maintenance")
	assert.False(t, r2.OK)
	assert.Equal(t, CategoryConfigBlocked, r2.Category)
	assert.False(t, called2)
}

func TestIntraLinkChainsToFollowOnChannel(t *testing.T) {
	inst := NewTestInstance(time.Unix(0, 0))
	var finalPayload any

	inst.Action(Config{ID: "validate-order"})
	inst.On("validate-order", func(p any) (any, error) {
		return LinkResult{ID: "charge-order", Payload: p}, nil
	})
	inst.Action(Config{ID: "charge-order"})
	inst.On("charge-order", func(p any) (any, error) {
		finalPayload = p
		return "charged", nil
	})

	r := inst.Call("validate-order", 4200)
	assert.True(t, r.OK)
	assert.Equal(t, 4200, finalPayload)
}

func TestRecuperationGateBlocksNonCriticalUnderStress(t *testing.T) {
	inst := NewTestInstance(time.Unix(0, 0), WithBreathingCapacity(1))
	inst.Init() // arms the breathing tick that recomputes stress
	inst.Action(Config{ID: "background-report"})
	inst.On("background-report", func(any) (any, error) { return "ran", nil })

	inst.Action(Config{ID: "pay-now", Priority: PriorityCritical})
	inst.On("pay-now", func(any) (any, error) { return "ran", nil })

	for i := 0; i < 200; i++ {
		inst.Call("background-report")
	}
	inst.Advance(1200 * time.Millisecond) // let the breathing tick observe the burst

	r := inst.Call("background-report")
	assert.False(t, r.OK)
	assert.Equal(t, CategoryGateBlocked, r.Category)

	rc := inst.Call("pay-now")
	assert.True(t, rc.OK, "critical priority bypasses recuperation")
}

func TestLifecycleInitShutdownReset(t *testing.T) {
	inst := NewTestInstance(time.Unix(0, 0))

	r := inst.Init()
	require.True(t, r.OK)
	again := inst.Init()
	assert.True(t, again.OK)
	assert.Nil(t, again.Payload, "a second Init is a no-op")

	inst.Action(Config{ID: "x"})
	inst.On("x", func(any) (any, error) { return nil, nil })

	shut := inst.Shutdown()
	assert.True(t, shut.OK)
	assert.True(t, inst.Status())

	_, ok := inst.Get("x")
	assert.False(t, ok, "shutdown clears registered state")

	inst.Reset()
	assert.False(t, inst.Status())
}

func TestForgetRemovesChannel(t *testing.T) {
	inst := NewTestInstance(time.Unix(0, 0))
	inst.Action(Config{ID: "temp", Debounce: 50 * time.Millisecond})
	inst.On("temp", func(any) (any, error) { return nil, nil })

	assert.True(t, inst.Forget("temp"))
	r := inst.Call("temp")
	assert.False(t, r.OK)
	assert.Equal(t, CategoryNotRegistered, r.Category)
}

func TestHasChangedAndGetPreviousTrackPayloadHistory(t *testing.T) {
	inst := NewTestInstance(time.Unix(0, 0))
	inst.Action(Config{ID: "y"})
	inst.On("y", func(p any) (any, error) { return p, nil })

	assert.True(t, inst.HasChanged("y", 1), "nothing stored yet counts as changed")
	inst.Call("y", 1)
	assert.False(t, inst.HasChanged("y", 1))
	assert.True(t, inst.HasChanged("y", 2))

	inst.Call("y", 2)
	prev, ok := inst.GetPrevious("y")
	require.True(t, ok)
	assert.Equal(t, 1, prev)

	cur, ok := inst.Get("y")
	require.True(t, ok)
	assert.Equal(t, 2, cur)
}

func TestLockPreventsNewActionsOnDefaultInstanceIsolated(t *testing.T) {
	inst := New()
	inst.Lock()
	r := inst.Action(Config{ID: "late"})
	assert.False(t, r.OK)

	inst.Unlock()
	r2 := inst.Action(Config{ID: "late"})
	assert.True(t, r2.OK)
}

func TestHealthReflectsLockAndRegistrySize(t *testing.T) {
	inst := NewTestInstance(time.Unix(0, 0))
	inst.Init()

	h := inst.Health()
	assert.True(t, h.Initialized)
	assert.False(t, h.Locked)
	assert.Equal(t, 0, h.RegistrySize)
	assert.Equal(t, "normal", h.Pattern)

	inst.Action(Config{ID: "x"})
	inst.Lock()

	h2 := inst.Health()
	assert.True(t, h2.Locked)
	assert.Equal(t, 1, h2.RegistrySize)

	inst.Shutdown()
	h3 := inst.Health()
	assert.True(t, h3.Hibernating)
}
