// Package metrics times logical executions with Prometheus collectors.
//
// A Timer is started when a logical call begins and stopped on every exit path.
// Timers are purely observational; nothing here can abort an execution.
package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const (
	namespace = "shardexec"
	subsystem = "execution"
)

// Registry owns the execution collectors
type Registry struct {
	reg      *prometheus.Registry
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
	inflight *prometheus.GaugeVec
}

// NewRegistry creates a registry with its own prometheus.Registry
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "duration_seconds",
				Help:      "Bucketed histogram of logical execution duration.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2.0, 20),
			}, []string{"name"}),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calls_total",
				Help:      "Number of logical executions started.",
			}, []string{"name"}),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "inflight",
				Help:      "Logical executions currently running.",
			}, []string{"name"}),
	}
	r.reg.MustRegister(r.duration, r.calls, r.inflight)
	return r
}

// Timer is an open timing scope
type Timer struct {
	registry *Registry
	name     string
	start    time.Time
	stopped  atomic.Bool
}

// Start opens a timing scope named name
func (r *Registry) Start(name string) *Timer {
	r.calls.WithLabelValues(name).Inc()
	r.inflight.WithLabelValues(name).Inc()
	return &Timer{
		registry: r,
		name:     name,
		start:    time.Now(),
	}
}

// Stop closes t. It is safe on a nil timer and stops a timer only once.
func (r *Registry) Stop(t *Timer) {
	if t == nil || !t.stopped.CompareAndSwap(false, true) {
		return
	}
	t.registry.inflight.WithLabelValues(t.name).Dec()
	t.registry.duration.WithLabelValues(t.name).Observe(time.Since(t.start).Seconds())
}

// Elapsed returns the time since t was started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Name returns the scope name
func (t *Timer) Name() string {
	return t.name
}

// WriteText writes all metrics in the Prometheus text exposition format
func (r *Registry) WriteText(w io.Writer) error {
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

var (
	defaultRegistry = NewRegistry()
	enabled         atomic.Bool
)

// Enable turns on recording for the package-level Start/Stop
func Enable() {
	enabled.Store(true)
}

// Disable turns off recording for the package-level Start/Stop
func Disable() {
	enabled.Store(false)
}

// Enabled reports whether package-level recording is on
func Enabled() bool {
	return enabled.Load()
}

// Default returns the package-level registry
func Default() *Registry {
	return defaultRegistry
}

// Start opens a scope on the default registry, or returns nil when metrics
// are disabled.
func Start(name string) *Timer {
	if !enabled.Load() {
		return nil
	}
	return defaultRegistry.Start(name)
}

// Stop closes a scope returned by Start
func Stop(t *Timer) {
	if t == nil {
		return
	}
	t.registry.Stop(t)
}
