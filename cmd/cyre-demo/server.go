package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cyreio/cyre-go"
	"github.com/cyreio/cyre-go/internal/api/middleware"
	"github.com/cyreio/cyre-go/pkg/metrics"
	pkgmiddleware "github.com/cyreio/cyre-go/pkg/middleware"
	"github.com/cyreio/cyre-go/pkg/sensor"
	"github.com/cyreio/cyre-go/snapshot"
)

// app bundles every long-lived collaborator the demo server wires
// together: the engine instance, its sensor bus, its Prometheus
// collector, and the optional snapshot store.
type app struct {
	cfg       *Config
	logger    *slog.Logger
	inst      *cyre.Instance
	bus       *sensor.Bus
	collector *metrics.Collector
	store     snapshot.Store
}

func newApp(cfg *Config, logger *slog.Logger) (*app, error) {
	bus := sensor.NewBus(1000)
	sink := sensor.Multi{sensor.NewSlogSink(logger), bus}

	inst := cyre.New(
		cyre.WithSink(sink),
		cyre.WithBreathingCapacity(cfg.Breathing.CapacityCallsPerSecond),
	)
	inst.Init()

	registerDemoChannels(inst, logger)

	collector := metrics.NewCollector("cyre_demo")

	a := &app{
		cfg:       cfg,
		logger:    logger,
		inst:      inst,
		bus:       bus,
		collector: collector,
	}

	if cfg.Snapshot.Enabled {
		store, err := newSnapshotStore(cfg.Snapshot, logger)
		if err != nil {
			return nil, fmt.Errorf("snapshot store: %w", err)
		}
		a.store = store
		if err := a.hydrate(context.Background()); err != nil {
			logger.Warn("snapshot hydrate failed, starting cold", "error", err)
		}
	}

	return a, nil
}

func newSnapshotStore(cfg SnapshotConfig, logger *slog.Logger) (snapshot.Store, error) {
	switch cfg.Backend {
	case "redis":
		return snapshot.NewRedisStore(snapshot.RedisConfig{Addr: cfg.RedisURL}, cfg.RedisKey, logger)
	default:
		return snapshot.NewFileStore(cfg.Path), nil
	}
}

func (a *app) hydrate(ctx context.Context) error {
	snap, err := a.store.Load(ctx)
	if err != nil {
		return err
	}
	return snapshot.Hydrate(snap, func(id string, payload any) error {
		resp := a.inst.Call(id, payload)
		if !resp.OK {
			a.logger.Warn("snapshot replay call failed", "id", id, "category", resp.Category)
		}
		return nil
	})
}

// runPersistLoop periodically captures every registered channel's
// current payload and saves it, until ctx is cancelled.
func (a *app) runPersistLoop(ctx context.Context) {
	if a.store == nil {
		return
	}
	ticker := time.NewTicker(a.cfg.Snapshot.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, err := captureSnapshot(a)
			if err != nil {
				a.logger.Error("snapshot capture failed", "error", err)
				continue
			}
			if err := a.store.Save(ctx, snap); err != nil {
				a.logger.Error("snapshot save failed", "error", err)
			}
		}
	}
}

// captureSnapshot pulls every registered channel's current payload,
// for both the periodic persist loop and the final save on shutdown.
func captureSnapshot(a *app) (snapshot.Snapshot, error) {
	return snapshot.Capture(a.inst.IDs(), a.inst.Get)
}

// registerDemoChannels seeds a handful of channels showing off each
// protection stage, so a fresh checkout has something to call and
// watch on the sensor stream immediately.
func registerDemoChannels(inst *cyre.Instance, logger *slog.Logger) {
	inst.Action(cyre.Config{ID: "demo-echo", Priority: cyre.PriorityMedium})
	inst.On("demo-echo", func(payload any) (any, error) { return payload, nil })

	inst.Action(cyre.Config{
		ID:       "demo-throttled",
		Throttle: 2 * time.Second,
		Priority: cyre.PriorityHigh,
	})
	inst.On("demo-throttled", func(payload any) (any, error) {
		logger.Info("demo-throttled invoked", "payload", payload)
		return "handled", nil
	})

	inst.Action(cyre.Config{
		ID:       "demo-debounced",
		Debounce: 300 * time.Millisecond,
		Priority: cyre.PriorityMedium,
	})
	inst.On("demo-debounced", func(payload any) (any, error) {
		logger.Info("demo-debounced invoked", "payload", payload)
		return "handled", nil
	})
}

func (a *app) router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.collector.Registry(), promhttp.HandlerOpts{}))
	mux.Handle("GET /sensor/stream", newSensorWSHandler(a.bus, a.logger))

	admin := newAdminAPI(a.inst)
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /api/channels", admin.handleChannels)
	adminMux.HandleFunc("GET /api/status", admin.handleMetrics)
	adminMux.HandleFunc("GET /api/health", admin.handleHealth)
	adminMux.HandleFunc("POST /api/channels/{id}/call", admin.handleCall)

	httpMetrics := middleware.NewHTTPMetrics(a.collector.Registry())

	// CORS wraps auth so a preflight OPTIONS request (sent without an
	// Authorization header) is answered before AuthMiddleware ever sees it.
	adminChain := middleware.ValidationMiddleware(adminMux)
	adminChain = middleware.AuthMiddleware(authConfigFrom(a.cfg.Server.AdminAPIKeys))(adminChain)
	adminChain = middleware.CORSMiddleware(middleware.DefaultCORSConfig())(adminChain)
	adminChain = middleware.RateLimitMiddleware(
		a.cfg.Server.AdminRateLimitPerMin,
		a.cfg.Server.AdminRateLimitBurst,
	)(adminChain)
	adminChain = httpMetrics.Middleware(adminChain)
	adminChain = middleware.CompressionMiddleware(adminChain)
	mux.Handle("/api/", adminChain)

	withSecurity := pkgmiddleware.SecureHeaders()(mux)
	withPaths := pkgmiddleware.PathNormalizationMiddleware()(withSecurity)
	handler := middleware.RequestIDMiddleware(middleware.LoggingMiddleware(a.logger)(withPaths))
	return handler
}

// authConfigFrom turns the configured admin API keys into an
// AuthConfig. Auth stays disabled when no keys are configured, so a
// fresh checkout's admin API works without any setup.
func authConfigFrom(keys []string) middleware.AuthConfig {
	cfg := middleware.AuthConfig{APIKeys: make(map[string]*middleware.User, len(keys))}
	for _, key := range keys {
		if key == "" {
			continue
		}
		cfg.APIKeys[key] = &middleware.User{ID: key, APIKey: key}
	}
	cfg.Enabled = len(cfg.APIKeys) > 0
	return cfg
}

// refreshMetricsLoop keeps the Prometheus collector's gauges current
// between scrapes, since Cyre's counters live on the registry/
// breathing controller rather than being pushed through the collector
// directly.
func (a *app) refreshMetricsLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refreshMetrics()
		}
	}
}

func (a *app) refreshMetrics() {
	sys := a.inst.Metrics()
	channels := make(map[string]metrics.ChannelReport)
	for _, id := range a.inst.IDs() {
		if ch, ok := a.inst.ChannelMetrics(id); ok {
			channels[id] = ch
		}
	}
	a.collector.RefreshFromReports(sys, channels)
}
