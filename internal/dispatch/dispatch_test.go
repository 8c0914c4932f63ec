package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyreio/cyre-go/internal/breathing"
	"github.com/cyreio/cyre-go/internal/clock"
	"github.com/cyreio/cyre-go/internal/pipeline"
	"github.com/cyreio/cyre-go/internal/registry"
	"github.com/cyreio/cyre-go/internal/store"
	"github.com/cyreio/cyre-go/internal/subscriber"
)

type harness struct {
	reg  *registry.Registry
	subs *subscriber.Table
	br   *breathing.Controller
	pay  *store.PayloadStore
	buf  *store.BufferStore
	wh   *clock.Wheel
	vc   *clock.Virtual
	d    *Dispatcher
}

func newHarness() *harness {
	vc := clock.NewVirtual(time.Unix(0, 0))
	wh := clock.New(vc, clock.NoStress, nil)
	br := breathing.New(1000, vc.Now)
	h := &harness{
		reg:  registry.New(),
		subs: subscriber.New(nil),
		br:   br,
		pay:  store.NewPayloadStore(),
		buf:  store.NewBufferStore(),
		wh:   wh,
		vc:   vc,
	}
	h.d = &Dispatcher{
		Registry:    h.reg,
		Subscribers: h.subs,
		Breathing:   h.br,
		Payloads:    h.pay,
		Wheel:       h.wh,
		Clock:       vc,
	}
	return h
}

func (h *harness) register(t *testing.T, cfg registry.Config, handler subscriber.Handler) *registry.Action {
	t.Helper()
	outcome, reason, err := registry.Validate(cfg)
	require.NoError(t, err)

	action := &registry.Action{Config: cfg, IsBlocked: outcome == registry.OutcomeBlock, BlockReason: reason}
	if outcome == registry.OutcomeAccept {
		deps := pipeline.Deps{Wheel: h.wh, Clock: h.vc, BufferStore: h.buf, PayloadStore: h.pay}
		compiled := pipeline.Compile(cfg, deps)
		action.HasFastPath = compiled.HasFastPath
		action.CompiledPipeline = compiled
	}
	require.NoError(t, h.reg.Insert(action))
	if handler != nil {
		h.subs.On(cfg.ID, handler)
	}
	return action
}

func TestThrottleFirstPass(t *testing.T) {
	h := newHarness()
	count := 0
	h.register(t, registry.Config{ID: "t", Throttle: time.Second}, func(any) (any, error) {
		count++
		return count, nil
	})

	r1 := h.d.Call("t", nil)
	require.True(t, r1.OK)
	assert.Equal(t, 1, count)

	r2 := h.d.Call("t", nil)
	assert.False(t, r2.OK)
	assert.Contains(t, r2.Message, "throttled")
	assert.Equal(t, 1, count)

	h.vc.Advance(1100 * time.Millisecond)
	r3 := h.d.Call("t", nil)
	assert.True(t, r3.OK)
	assert.Equal(t, 2, count)
}

func TestDebounceCoalescingEndToEnd(t *testing.T) {
	h := newHarness()
	var seen []any
	h.register(t, registry.Config{ID: "d", Debounce: 200 * time.Millisecond}, func(p any) (any, error) {
		seen = append(seen, p)
		return nil, nil
	})

	h.d.Call("d", 1)
	h.vc.Advance(50 * time.Millisecond)
	h.d.Call("d", 2)
	h.vc.Advance(50 * time.Millisecond)
	h.d.Call("d", 3)

	assert.Empty(t, seen)
	h.vc.Advance(300 * time.Millisecond)

	require.Len(t, seen, 1)
	assert.Equal(t, 3, seen[0])
}

func TestChangeDetectionEndToEnd(t *testing.T) {
	h := newHarness()
	calls := 0
	h.register(t, registry.Config{ID: "c", DetectChanges: true}, func(p any) (any, error) {
		calls++
		return p, nil
	})

	r1 := h.d.Call("c", map[string]int{"v": 1})
	assert.True(t, r1.OK)
	assert.Equal(t, 1, calls)

	r2 := h.d.Call("c", map[string]int{"v": 1})
	assert.True(t, r2.OK)
	assert.Contains(t, r2.Message, "no change")
	assert.Equal(t, 1, calls)

	r3 := h.d.Call("c", map[string]int{"v": 2})
	assert.True(t, r3.OK)
	assert.Equal(t, 2, calls)
}

func TestRequiredAndBlockRegistration(t *testing.T) {
	h := newHarness()

	_, reason, err := registry.Validate(registry.Config{ID: "r", Required: true})
	assert.NoError(t, err)
	assert.Equal(t, registry.BlockRequiredMissing, reason)

	blocked := h.register(t, registry.Config{ID: "b", Block: true, Payload: 1}, func(any) (any, error) { return nil, nil })
	assert.True(t, blocked.IsBlocked)

	r := h.d.Call("b", nil)
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "blocked")
}

func TestIntraLinkChaining(t *testing.T) {
	h := newHarness()
	var bPayload any
	h.register(t, registry.Config{ID: "a"}, func(any) (any, error) {
		return LinkResult{ID: "b", Payload: 42}, nil
	})
	h.register(t, registry.Config{ID: "b"}, func(p any) (any, error) {
		bPayload = p
		return nil, nil
	})

	r := h.d.Call("a", nil)
	assert.True(t, r.OK)
	assert.Equal(t, 42, bPayload)
}

func TestIntraLinkDepthExceeded(t *testing.T) {
	h := newHarness()
	h.d.LinkMaxDepth = 2

	h.register(t, registry.Config{ID: "x0"}, func(any) (any, error) { return LinkResult{ID: "x1", Payload: nil}, nil })
	h.register(t, registry.Config{ID: "x1"}, func(any) (any, error) { return LinkResult{ID: "x2", Payload: nil}, nil })
	h.register(t, registry.Config{ID: "x2"}, func(any) (any, error) { return LinkResult{ID: "x3", Payload: nil}, nil })
	h.register(t, registry.Config{ID: "x3"}, func(any) (any, error) { return nil, nil })

	r := h.d.Call("x0", nil)
	assert.True(t, r.OK, "the depth-exceeded failure belongs to the inner link call, not the caller's own response")
}

func TestRecuperationGateRejectsNonCritical(t *testing.T) {
	h := newHarness()
	h.br = breathing.New(1, h.vc.Now)
	h.d.Breathing = h.br
	for i := 0; i < 100; i++ {
		h.br.RecordCall(true)
	}
	h.br.Tick()
	require.True(t, h.br.Snapshot().IsRecuperating)

	h.register(t, registry.Config{ID: "x"}, func(any) (any, error) { return nil, nil })
	h.register(t, registry.Config{ID: "crit", Priority: registry.PriorityCritical}, func(any) (any, error) { return "ran", nil })

	r := h.d.Call("x", nil)
	assert.False(t, r.OK)
	assert.Contains(t, r.Message, "recuperating")

	rc := h.d.Call("crit", nil)
	assert.True(t, rc.OK)
	assert.Equal(t, "ran", rc.Payload)
}

func TestNotRegistered(t *testing.T) {
	h := newHarness()
	r := h.d.Call("missing", nil)
	assert.False(t, r.OK)
	assert.Equal(t, "not_registered", string(r.Category))
}
