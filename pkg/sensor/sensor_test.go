package sensor

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusSubscribeAndBroadcast(t *testing.T) {
	b := NewBus(8)
	defer b.Close()

	ch, cancel := b.Subscribe(4)
	defer cancel()

	b.Emit(New(LevelInfo, "chan-1", PhaseThrottleBlocked, nil, uuid.Nil))

	select {
	case e := <-ch:
		assert.Equal(t, "chan-1", e.Subject)
		assert.Equal(t, PhaseThrottleBlocked, e.Phase)
	case <-time.After(time.Second):
		t.Fatal("expected event was not broadcast")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(8)
	defer b.Close()

	ch, cancel := b.Subscribe(4)
	cancel()

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestBusDropsOnFullSubscriberQueue(t *testing.T) {
	b := NewBus(8)
	defer b.Close()

	_, cancel := b.Subscribe(1)
	defer cancel()

	for i := 0; i < 20; i++ {
		b.Emit(New(LevelDebug, "x", "p", nil, uuid.Nil))
	}
	// No assertion on exact drop count (broadcast goroutine timing),
	// just that Emit never blocks the caller.
}

func TestMultiFansOutToAllSinks(t *testing.T) {
	var a, b recordingSink
	m := Multi{&a, &b}
	m.Emit(New(LevelInfo, "x", "p", nil, uuid.Nil))

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
}

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Emit(e Event) { r.events = append(r.events, e) }
