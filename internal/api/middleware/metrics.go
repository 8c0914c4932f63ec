package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pathmw "github.com/cyreio/cyre-go/pkg/middleware"
)

// HTTPMetrics instruments the admin HTTP surface with Prometheus
// metrics, registered against a caller-supplied registry rather than
// prometheus.DefaultRegisterer — cmd/cyre-demo already mounts
// pkg/metrics.Collector's own dedicated registry at /metrics, and a
// second, global-registry set of gauges would silently never show up
// there.
type HTTPMetrics struct {
	normalizer *pathmw.PathNormalizer

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
}

// NewHTTPMetrics registers the admin HTTP metrics against reg.
func NewHTTPMetrics(reg *prometheus.Registry) *HTTPMetrics {
	m := &HTTPMetrics{
		normalizer: pathmw.NewPathNormalizer(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cyre_demo_http_requests_total",
				Help: "Total number of admin HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cyre_demo_http_request_duration_seconds",
				Help:    "Admin HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		requestsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cyre_demo_http_requests_in_flight",
				Help: "Number of admin HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.requestsInFlight)
	return m
}

// Middleware instruments every request through it. Endpoint labels are
// normalized through pkg/middleware.PathNormalizer so dynamic channel
// ids in /api/channels/{id}/call don't explode the metric's
// cardinality, one series per id ever called.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := m.normalizer.NormalizePath(r.URL.Path)
		method := r.Method

		m.requestsInFlight.WithLabelValues(method, endpoint).Inc()
		defer m.requestsInFlight.WithLabelValues(method, endpoint).Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		m.requestsTotal.WithLabelValues(method, endpoint, status).Inc()
		m.requestDuration.WithLabelValues(method, endpoint).Observe(duration)
	})
}
