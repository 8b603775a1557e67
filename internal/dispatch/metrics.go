package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "ifcchunk"

// Metrics holds the Prometheus collectors updated by a Coordinator.
type Metrics struct {
	chunks     *prometheus.CounterVec
	inFlight   prometheus.Gauge
	duration   prometheus.Histogram
	tokens     prometheus.Counter
	components prometheus.Counter
}

// NewMetrics creates the dispatch collectors and registers them on reg.
// A nil reg leaves them unregistered, which tests use to read values
// without a registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatch",
			Name:      "chunks_total",
			Help:      "Chunks processed, by final state.",
		}, []string{"state"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatch",
			Name:      "chunks_in_flight",
			Help:      "Chunks currently being extracted.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatch",
			Name:      "chunk_duration_seconds",
			Help:      "Wall time of one extraction call.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatch",
			Name:      "tokens_total",
			Help:      "Tokens reported by the extraction backend.",
		}),
		components: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatch",
			Name:      "components_total",
			Help:      "Components returned by successful extractions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.chunks, m.inFlight, m.duration, m.tokens, m.components)
	}
	return m
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) finished(o *Outcome) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.duration.Observe(o.Duration.Seconds())
	m.chunks.WithLabelValues(o.State.String()).Inc()
	if o.State == Succeeded {
		m.tokens.Add(float64(o.Tokens))
		m.components.Add(float64(len(o.Components)))
	}
}

func (m *Metrics) skipped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.chunks.WithLabelValues("skipped").Add(float64(n))
}
