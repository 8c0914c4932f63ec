// Package metrics computes the fixed-shape channel and system reports
// spec §6 names ("getMetrics(id?)") from the live engine state, and
// backs them with a Prometheus registry in the teacher's promauto
// style.
package metrics

import (
	"time"

	"github.com/cyreio/cyre-go/internal/breathing"
	"github.com/cyreio/cyre-go/internal/clock"
	"github.com/cyreio/cyre-go/internal/registry"
)

// ChannelReport is getMetrics(id)'s shape. It is fixed: callers must
// not rely on additional fields appearing.
type ChannelReport struct {
	ExecutionCount int64
	LastExecTime   time.Time
	Errors         int64
	AvgDuration    time.Duration
}

// Channel computes id's report from its registry entry. ok is false if
// id is not registered.
func Channel(reg *registry.Registry, id string) (ChannelReport, bool) {
	action, ok := reg.Get(id)
	if !ok {
		return ChannelReport{}, false
	}
	snap := action.Snapshot()

	var avg time.Duration
	if snap.ExecutionCount > 0 {
		avg = snap.DurationTotal / time.Duration(snap.ExecutionCount)
	}
	return ChannelReport{
		ExecutionCount: snap.ExecutionCount,
		LastExecTime:   snap.LastExecTime,
		Errors:         snap.ErrorCount,
		AvgDuration:    avg,
	}, true
}

// SystemReport is getMetrics()'s shape (no id).
type SystemReport struct {
	TotalCalls     int64
	TotalErrors    int64
	CallsPerSecond float64
	Stress         float64
	Pattern        string
	Recuperating   bool
	TimersActive   int
}

// System aggregates every registered channel's counters with the
// breathing controller's current snapshot and the wheel's active timer
// count.
func System(reg *registry.Registry, br *breathing.Controller, wheel *clock.Wheel) SystemReport {
	var calls, errs int64
	for _, id := range reg.IDs() {
		action, ok := reg.Get(id)
		if !ok {
			continue
		}
		snap := action.Snapshot()
		calls += snap.ExecutionCount
		errs += snap.ErrorCount
	}

	bsnap := br.Snapshot()
	return SystemReport{
		TotalCalls:     calls,
		TotalErrors:    errs,
		CallsPerSecond: bsnap.CurrentRate,
		Stress:         bsnap.Stress,
		Pattern:        string(bsnap.Pattern),
		Recuperating:   bsnap.IsRecuperating,
		TimersActive:   wheel.Active(),
	}
}
