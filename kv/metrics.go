package kv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts persistence operations per key. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ops      *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studydock_kv_operations_total",
			Help: "Persistence operations by operation and key",
		}, []string{"operation", "key"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studydock_kv_failures_total",
			Help: "Failed persistence operations by operation and key",
		}, []string{"operation", "key"}),
	}
}

func (m *Metrics) observe(op, key string, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, key).Inc()
	if err != nil {
		m.failures.WithLabelValues(op, key).Inc()
	}
}

// Failures reports the failure counter for op and key.
func (m *Metrics) Failures(op, key string) prometheus.Counter {
	return m.failures.WithLabelValues(op, key)
}
