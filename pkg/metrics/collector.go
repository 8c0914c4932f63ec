package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cyreio/cyre-go/internal/breathing"
	"github.com/cyreio/cyre-go/internal/clock"
	"github.com/cyreio/cyre-go/internal/registry"
)

// Collector mirrors System and per-channel Channel reports into
// Prometheus gauges, following the namespace/subsystem construction
// style the teacher's metrics registry uses (see the removed
// pkg/metrics/registry.go's promauto.NewCounterVec calls). It owns a
// dedicated prometheus.Registry rather than registering against the
// global DefaultRegisterer, so more than one Instance (as in tests)
// can each run its own Collector without a duplicate-registration
// panic.
type Collector struct {
	registry *prometheus.Registry

	totalCalls     prometheus.Gauge
	totalErrors    prometheus.Gauge
	callsPerSecond prometheus.Gauge
	stress         prometheus.Gauge
	recuperating   prometheus.Gauge
	timersActive   prometheus.Gauge

	channelExecutions *prometheus.GaugeVec
	channelErrors     *prometheus.GaugeVec
	channelAvgMS      *prometheus.GaugeVec
}

// NewCollector builds a Collector under the given namespace (typically
// "cyre") with its own Prometheus registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		totalCalls: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "calls_total",
			Help: "Total successful and failed channel executions across every registered channel.",
		}),
		totalErrors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "errors_total",
			Help: "Total handler errors across every registered channel.",
		}),
		callsPerSecond: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "calls_per_second",
			Help: "Breathing controller's most recently observed call rate.",
		}),
		stress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "stress",
			Help: "Breathing controller's stress score in [0,1].",
		}),
		recuperating: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "recuperating",
			Help: "1 if the breathing controller is gating non-critical calls, 0 otherwise.",
		}),
		timersActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "system", Name: "timers_active",
			Help: "Number of timers currently armed on the wheel.",
		}),
		channelExecutions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "channel", Name: "executions_total",
			Help: "Successful and failed executions for a single channel.",
		}, []string{"id"}),
		channelErrors: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "channel", Name: "errors_total",
			Help: "Handler errors for a single channel.",
		}, []string{"id"}),
		channelAvgMS: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "channel", Name: "avg_duration_ms",
			Help: "Average handler duration in milliseconds for a single channel.",
		}, []string{"id"}),
	}
}

// Registry returns the underlying Prometheus registry, for mounting
// behind an http.Handler (promhttp.HandlerFor).
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Refresh recomputes every gauge from the live engine state. Cheap
// enough to call on every /metrics scrape; it does no allocation
// beyond the per-channel report already computed in Channel.
func (c *Collector) Refresh(reg *registry.Registry, br *breathing.Controller, wheel *clock.Wheel) {
	sys := System(reg, br, wheel)
	c.totalCalls.Set(float64(sys.TotalCalls))
	c.totalErrors.Set(float64(sys.TotalErrors))
	c.callsPerSecond.Set(sys.CallsPerSecond)
	c.stress.Set(sys.Stress)
	c.timersActive.Set(float64(sys.TimersActive))
	if sys.Recuperating {
		c.recuperating.Set(1)
	} else {
		c.recuperating.Set(0)
	}

	for _, id := range reg.IDs() {
		rep, ok := Channel(reg, id)
		if !ok {
			continue
		}
		c.channelExecutions.WithLabelValues(id).Set(float64(rep.ExecutionCount))
		c.channelErrors.WithLabelValues(id).Set(float64(rep.Errors))
		c.channelAvgMS.WithLabelValues(id).Set(float64(rep.AvgDuration.Milliseconds()))
	}
}

// RefreshFromReports is Refresh's counterpart for callers that only
// have SystemReport/ChannelReport values in hand (cmd/cyre-demo, which
// sits behind the cyre package's public API and never imports
// internal/registry, internal/breathing, or internal/clock directly).
func (c *Collector) RefreshFromReports(sys SystemReport, channels map[string]ChannelReport) {
	c.totalCalls.Set(float64(sys.TotalCalls))
	c.totalErrors.Set(float64(sys.TotalErrors))
	c.callsPerSecond.Set(sys.CallsPerSecond)
	c.stress.Set(sys.Stress)
	c.timersActive.Set(float64(sys.TimersActive))
	if sys.Recuperating {
		c.recuperating.Set(1)
	} else {
		c.recuperating.Set(0)
	}

	for id, rep := range channels {
		c.channelExecutions.WithLabelValues(id).Set(float64(rep.ExecutionCount))
		c.channelErrors.WithLabelValues(id).Set(float64(rep.Errors))
		c.channelAvgMS.WithLabelValues(id).Set(float64(rep.AvgDuration.Milliseconds()))
	}
}
