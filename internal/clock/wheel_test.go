package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWheelSingleFire(t *testing.T) {
	vc := NewVirtual(time.Unix(0, 0))
	w := New(vc, nil, nil)

	fired := 0
	_, err := w.Keep(100*time.Millisecond, func() { fired++ }, Once(), "once")
	require.NoError(t, err)

	vc.Advance(50 * time.Millisecond)
	assert.Equal(t, 0, fired)

	vc.Advance(60 * time.Millisecond)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, w.Active())
}

func TestWheelRepeatCount(t *testing.T) {
	vc := NewVirtual(time.Unix(0, 0))
	w := New(vc, nil, nil)

	fired := 0
	_, err := w.Keep(10*time.Millisecond, func() { fired++ }, Count(3), "thrice")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		vc.Advance(10 * time.Millisecond)
	}
	assert.Equal(t, 3, fired)
	assert.Equal(t, 0, w.Active())
}

func TestWheelInfiniteUntilForget(t *testing.T) {
	vc := NewVirtual(time.Unix(0, 0))
	w := New(vc, nil, nil)

	fired := 0
	_, err := w.Keep(10*time.Millisecond, func() { fired++ }, Infinite(), "forever")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		vc.Advance(10 * time.Millisecond)
	}
	assert.Equal(t, 5, fired)

	w.Forget("forever")
	vc.Advance(100 * time.Millisecond)
	assert.Equal(t, 5, fired, "no firings after forget")
}

func TestWheelNeverRepeatRejected(t *testing.T) {
	vc := NewVirtual(time.Unix(0, 0))
	w := New(vc, nil, nil)

	_, err := w.Keep(10*time.Millisecond, func() {}, Never(), "x")
	assert.ErrorIs(t, err, ErrNeverRepeat)
}

func TestWheelPauseResume(t *testing.T) {
	vc := NewVirtual(time.Unix(0, 0))
	w := New(vc, nil, nil)

	fired := 0
	_, err := w.Keep(100*time.Millisecond, func() { fired++ }, Once(), "p")
	require.NoError(t, err)

	vc.Advance(40 * time.Millisecond)
	require.NoError(t, w.Pause("p"))
	vc.Advance(200 * time.Millisecond)
	assert.Equal(t, 0, fired, "paused timer must not fire")

	require.NoError(t, w.Resume("p"))
	vc.Advance(59 * time.Millisecond)
	assert.Equal(t, 0, fired)
	vc.Advance(2 * time.Millisecond)
	assert.Equal(t, 1, fired)
}

func TestWheelHibernateClearsTimers(t *testing.T) {
	vc := NewVirtual(time.Unix(0, 0))
	w := New(vc, nil, nil)

	fired := 0
	_, err := w.Keep(10*time.Millisecond, func() { fired++ }, Infinite(), "h")
	require.NoError(t, err)

	w.Hibernate()
	assert.Equal(t, 0, w.Active())
	vc.Advance(100 * time.Millisecond)
	assert.Equal(t, 0, fired)

	_, err = w.Keep(10*time.Millisecond, func() {}, Once(), "still-hibernating")
	assert.ErrorIs(t, err, ErrHibernating)

	w.Reset()
	_, err = w.Keep(10*time.Millisecond, func() {}, Once(), "after-reset")
	require.NoError(t, err)
}

func TestWheelStressFactorSampledAtArmTime(t *testing.T) {
	vc := NewVirtual(time.Unix(0, 0))
	stress := &mutableStress{factor: 1}
	w := New(vc, stress, nil)

	fired := 0
	_, err := w.Keep(10*time.Millisecond, func() { fired++ }, Once(), "slow")
	require.NoError(t, err)

	stress.factor = 3 // combined stress of 2.0 -> factor 1+2
	vc.Advance(10 * time.Millisecond)
	assert.Equal(t, 1, fired, "factor is sampled at arm time, not retroactively")
}

func TestWheelRunawayCeiling(t *testing.T) {
	vc := NewVirtual(time.Unix(0, 0))
	var reportedID string
	var reportedCount int64
	w := New(vc, nil, func(id string, count int64) {
		reportedID = id
		reportedCount = count
	})

	fired := 0
	_, err := w.Keep(1*time.Millisecond, func() { fired++ }, Infinite(), "runaway")
	require.NoError(t, err)

	for i := 0; i < RunawayCeiling+5; i++ {
		vc.Advance(1 * time.Millisecond)
	}

	assert.Equal(t, "runaway", reportedID)
	assert.True(t, reportedCount > RunawayCeiling)
	assert.Equal(t, 0, w.Active(), "runaway timer is removed from the wheel")
}

type mutableStress struct{ factor float64 }

func (m *mutableStress) IntervalFactor() float64 { return m.factor }
