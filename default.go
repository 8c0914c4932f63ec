package cyre

import (
	"time"

	"github.com/cyreio/cyre-go/pkg/metrics"
)

// defaultInstance is the package-level engine every top-level function
// delegates to. Most programs need exactly one; multi-tenant or test
// code that needs isolation should call New directly instead.
var defaultInstance = New()

// Init prepares the default instance (spec §4.K).
func Init() Response { return defaultInstance.Init() }

// Action registers or replaces a channel on the default instance.
func Action(cfg Config) Response { return defaultInstance.Action(cfg) }

// Actions registers each cfg on the default instance, in order.
func Actions(cfgs []Config) []Response { return defaultInstance.Actions(cfgs) }

// On registers id's handler on the default instance.
func On(id string, handler Handler) { defaultInstance.On(id, handler) }

// Call dispatches id on the default instance.
func Call(id string, payload ...any) Response { return defaultInstance.Call(id, payload...) }

// Forget removes id from the default instance.
func Forget(id string) bool { return defaultInstance.Forget(id) }

// Clear destroys every channel on the default instance.
func Clear() { defaultInstance.Clear() }

// Pause freezes id's timers on the default instance, or every timer if
// id is empty.
func Pause(id string) error { return defaultInstance.Pause(id) }

// Resume reactivates id's timers on the default instance, or every
// paused timer if id is empty.
func Resume(id string) error { return defaultInstance.Resume(id) }

// Lock prevents further registrations on the default instance.
func Lock() { defaultInstance.Lock() }

// Unlock reverses Lock on the default instance.
func Unlock() { defaultInstance.Unlock() }

// IDs returns every channel id registered on the default instance.
func IDs() []string { return defaultInstance.IDs() }

// ChannelMetrics returns id's execution report from the default
// instance.
func ChannelMetrics(id string) (metrics.ChannelReport, bool) { return defaultInstance.ChannelMetrics(id) }

// Metrics returns the default instance's process-wide report.
func Metrics() metrics.SystemReport { return defaultInstance.Metrics() }

// Health returns the default instance's operational snapshot.
func Health() HealthReport { return defaultInstance.Health() }

// Get returns id's current payload from the default instance.
func Get(id string) (any, bool) { return defaultInstance.Get(id) }

// GetPrevious returns id's payload from before its last successful
// call on the default instance.
func GetPrevious(id string) (any, bool) { return defaultInstance.GetPrevious(id) }

// HasChanged reports whether payload differs from id's stored payload
// on the default instance.
func HasChanged(id string, payload any) bool { return defaultInstance.HasChanged(id, payload) }

// Status reports whether the default instance is hibernating.
func Status() bool { return defaultInstance.Status() }

// Shutdown hibernates and clears the default instance.
func Shutdown() Response { return defaultInstance.Shutdown() }

// GracefulShutdown waits up to drain before shutting down the default
// instance.
func GracefulShutdown(drain time.Duration) Response { return defaultInstance.GracefulShutdown(drain) }

// Reset re-enables scheduling on the default instance after Shutdown.
func Reset() { defaultInstance.Reset() }
