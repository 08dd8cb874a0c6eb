// Package metrics exposes calcpatch counters in the Prometheus format:
// substitute calls, lifecycle transitions, teardown warnings and the
// current patch state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "calcpatch"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the calcpatch collectors on a private registry, so several
// instances (one per test) never collide.
type Metrics struct {
	registry    *prometheus.Registry
	calls       *prometheus.CounterVec
	transitions *prometheus.CounterVec
	warnings    prometheus.Counter
	state       *prometheus.GaugeVec
	handler     http.Handler
}

// NewMetrics creates and registers the collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "substitute_calls_total",
			Help:      "Calls that reached a substitute, by substitute and outcome.",
		}, []string{"substitute", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_transitions_total",
			Help:      "Lifecycle operations, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teardown_warnings_total",
			Help:      "Deactivate or uninstall requests against inactive entries.",
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "patch_state",
			Help:      "1 for the current lifecycle state of the patch set.",
		}, []string{"state"}),
	}
	m.registry.MustRegister(
		m.calls,
		m.transitions,
		m.warnings,
		m.state,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return m
}

// ObserveCall counts one substitute call.
func (m *Metrics) ObserveCall(substitute string, err error) {
	m.calls.WithLabelValues(substitute, outcome(err)).Inc()
}

// ObserveTransition counts one lifecycle operation.
func (m *Metrics) ObserveTransition(operation string, err error) {
	m.transitions.WithLabelValues(operation, outcome(err)).Inc()
}

// ObserveTeardownWarning counts one teardown warning.
func (m *Metrics) ObserveTeardownWarning() {
	m.warnings.Inc()
}

// SetState records state as the current lifecycle state.
func (m *Metrics) SetState(state string) {
	m.state.Reset()
	m.state.WithLabelValues(state).Set(1)
}

// RegisterHost adds gauges reporting system-wide CPU and memory usage.
// sample runs once per scrape and feeds both gauges.
func (m *Metrics) RegisterHost(sample func() (cpuPercent, memPercent float64)) error {
	return m.registry.Register(newHostCollector(sample))
}

// Handler returns the HTTP handler serving the exposition format.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// hostCollector emits the host gauges from a single sample.
type hostCollector struct {
	sample func() (cpuPercent, memPercent float64)
	cpu    *prometheus.Desc
	mem    *prometheus.Desc
}

func newHostCollector(sample func() (cpuPercent, memPercent float64)) *hostCollector {
	return &hostCollector{
		sample: sample,
		cpu: prometheus.NewDesc(prometheus.BuildFQName(namespace, "host", "cpu_percent"),
			"System-wide CPU usage in percent.", nil, nil),
		mem: prometheus.NewDesc(prometheus.BuildFQName(namespace, "host", "memory_percent"),
			"System-wide memory usage in percent.", nil, nil),
	}
}

func (c *hostCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cpu
	ch <- c.mem
}

func (c *hostCollector) Collect(ch chan<- prometheus.Metric) {
	cpu, mem := c.sample()
	ch <- prometheus.MustNewConstMetric(c.cpu, prometheus.GaugeValue, cpu)
	ch <- prometheus.MustNewConstMetric(c.mem, prometheus.GaugeValue, mem)
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
