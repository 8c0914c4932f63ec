package breathing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestControllerLowTrafficStaysNormal(t *testing.T) {
	now := time.Unix(0, 0)
	c := New(1000, func() time.Time { return now })

	c.RecordCall(true)
	now = now.Add(time.Second)
	snap := c.Tick()

	assert.False(t, snap.IsRecuperating)
	assert.Equal(t, PatternNormal, snap.Pattern)
	assert.True(t, c.Admit(false))
}

func TestControllerHighTrafficEntersRecuperation(t *testing.T) {
	now := time.Unix(0, 0)
	c := New(100, func() time.Time { return now })

	for i := 0; i < 200; i++ {
		c.RecordCall(true)
	}
	now = now.Add(time.Second)
	snap := c.Tick()

	assert.True(t, snap.Stress >= HighWater)
	assert.True(t, snap.IsRecuperating)
	assert.False(t, c.Admit(false), "non-critical calls rejected while recuperating")
	assert.True(t, c.Admit(true), "critical calls always admitted")
}

func TestControllerHysteresisRequiresDropBelowLowWater(t *testing.T) {
	now := time.Unix(0, 0)
	c := New(100, func() time.Time { return now })

	for i := 0; i < 200; i++ {
		c.RecordCall(true)
	}
	now = now.Add(time.Second)
	c.Tick()
	assert.True(t, c.Snapshot().IsRecuperating)

	// Moderate traffic: rate stress alone reads 0.85*0.7, about 0.6,
	// below HighWater but not yet below LowWater: still recuperating.
	for i := 0; i < 85; i++ {
		c.RecordCall(true)
	}
	now = now.Add(time.Second)
	c.Tick()
	assert.True(t, c.Snapshot().IsRecuperating, "hysteresis keeps recuperating until below LowWater")

	for i := 0; i < 10; i++ {
		c.RecordCall(true)
	}
	now = now.Add(time.Second)
	c.Tick()
	assert.False(t, c.Snapshot().IsRecuperating)
}

func TestControllerIntervalFactorScalesWithStress(t *testing.T) {
	now := time.Unix(0, 0)
	c := New(100, func() time.Time { return now })
	assert.Equal(t, 1.0, c.IntervalFactor())

	for i := 0; i < 200; i++ {
		c.RecordCall(true)
	}
	now = now.Add(time.Second)
	c.Tick()
	assert.True(t, c.IntervalFactor() > 1)
}

func TestControllerErrorRateContributesToStress(t *testing.T) {
	now := time.Unix(0, 0)
	clean := New(1000, func() time.Time { return now })
	for i := 0; i < 10; i++ {
		clean.RecordCall(true)
	}
	now2 := now.Add(time.Second)
	clean.now = func() time.Time { return now2 }
	cleanSnap := clean.Tick()

	now = time.Unix(0, 0)
	errorProne := New(1000, func() time.Time { return now })
	for i := 0; i < 10; i++ {
		errorProne.RecordCall(false)
	}
	now3 := now.Add(time.Second)
	errorProne.now = func() time.Time { return now3 }
	errorSnap := errorProne.Tick()

	assert.True(t, errorSnap.Stress > cleanSnap.Stress)
}
