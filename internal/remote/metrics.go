package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts and times outbound calls per service, op and outcome
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the call metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskdeck",
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Outbound backend calls by service, op and outcome.",
		}, []string{"service", "op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskdeck",
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Outbound backend call latency.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"service", "op"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(service string, op Op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(service, string(op), outcome).Inc()
	m.duration.WithLabelValues(service, string(op)).Observe(elapsed.Seconds())
}
