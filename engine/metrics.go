package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus counters the Workflow Engine emits around
// task attempts, retries, and breakpoints. Each Engine owns its own Metrics
// instance registered against a caller-supplied registerer, so multiple
// engines in one process (e.g. one per tenant) do not collide on metric
// names — the same per-instance-registration discipline
// api/handlers/metrics.go follows for HTTP-layer counters.
type Metrics struct {
	attempts    *prometheus.CounterVec
	retries     *prometheus.CounterVec
	breakpoints *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics registers the engine's counters against reg. Passing
// prometheus.NewRegistry() isolates an engine's metrics for tests;
// prometheus.DefaultRegisterer wires them into the process-wide /metrics
// endpoint in production, the same choice cmd/deepnew/server.go makes for
// the HTTP layer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepnew_engine_task_attempts_total",
			Help: "Total task execution attempts by task name and outcome.",
		}, []string{"task", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepnew_engine_task_retries_total",
			Help: "Total retry attempts by task name.",
		}, []string{"task"}),
		breakpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deepnew_engine_breakpoints_total",
			Help: "Total breakpoints hit by task name.",
		}, []string{"task"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deepnew_engine_task_duration_seconds",
			Help:    "Task attempt duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
	}
	reg.MustRegister(m.attempts, m.retries, m.breakpoints, m.duration)
	return m
}

func (m *Metrics) observeAttempt(task, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(task, outcome).Inc()
	m.duration.WithLabelValues(task).Observe(seconds)
}

func (m *Metrics) observeRetry(task string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(task).Inc()
}

func (m *Metrics) observeBreakpoint(task string) {
	if m == nil {
		return
	}
	m.breakpoints.WithLabelValues(task).Inc()
}
