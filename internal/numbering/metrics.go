package numbering

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts allocator outcomes per document type.
type Metrics struct {
	allocations *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	exhausted   *prometheus.CounterVec
}

// NewMetrics registers allocator metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carrier_numbers_allocated_total",
			Help: "Document numbers handed out, by document type.",
		}, []string{"doc_type"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carrier_allocation_conflicts_total",
			Help: "Counter commits rejected because another writer advanced the counter first.",
		}, []string{"doc_type"}),
		exhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carrier_allocation_contention_total",
			Help: "Allocations that gave up after the maximum number of attempts.",
		}, []string{"doc_type"}),
	}
	if reg != nil {
		reg.MustRegister(m.allocations, m.conflicts, m.exhausted)
	}
	return m
}

func (m *Metrics) allocated(t DocType) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) conflict(t DocType) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) contention(t DocType) {
	if m == nil {
		return
	}
	m.exhausted.WithLabelValues(string(t)).Inc()
}
