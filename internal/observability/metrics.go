package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus instruments for the call tracker.
// It satisfies calls.Observer.
type Metrics struct {
	Transitions  *prometheus.CounterVec
	CallDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics registers the instruments on a private registry so tests and
// multiple trackers in one process never collide.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewMetricsWith(namespace, reg, reg)
}

func NewMetricsWith(namespace string, reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_transitions_total",
			Help:      "Call lifecycle operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		CallDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of ended calls in seconds.",
			Buckets:   []float64{15, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		gatherer: g,
	}
}

func (m *Metrics) ObserveTransition(op, outcome string) {
	m.Transitions.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ObserveCallDuration(d time.Duration) {
	m.CallDuration.Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
