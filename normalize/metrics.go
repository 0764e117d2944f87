package normalize

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink counts unmapped labels per kind and revision.
type MetricsSink struct {
	unmapped *prometheus.CounterVec
}

// NewMetricsSink creates the counter and registers it with reg. A nil reg
// leaves the counter unregistered.
func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	m := &MetricsSink{
		unmapped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semcode",
			Name:      "unmapped_labels_total",
			Help:      "Labels that fell back to the unknown code, by vocabulary kind",
		}, []string{"kind", "revision"}),
	}
	if reg != nil {
		if err := reg.Register(m.unmapped); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Report increments the counter for d.Kind.
func (m *MetricsSink) Report(d Diagnostic) {
	m.unmapped.WithLabelValues(string(d.Kind), d.Revision).Inc()
}

// Collector exposes the underlying counter vector.
func (m *MetricsSink) Collector() *prometheus.CounterVec {
	return m.unmapped
}
