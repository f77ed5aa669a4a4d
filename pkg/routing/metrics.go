package routing

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains Prometheus metrics for routing decisions.
type Metrics struct {
	selections *prometheus.CounterVec
	fallbacks  prometheus.Counter
	saved      prometheus.Counter
}

// NewMetrics creates routing metrics and registers them with the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codechat",
				Subsystem: "routing",
				Name:      "selections_total",
				Help:      "Total routing decisions by model, provider, and complexity",
			},
			[]string{"model", "provider", "complexity"},
		),

		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codechat",
			Subsystem: "routing",
			Name:      "fallbacks_total",
			Help:      "Total selections that fell back outside the classified tier",
		}),

		saved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codechat",
			Subsystem: "routing",
			Name:      "estimated_savings_usd_total",
			Help:      "Accumulated estimated savings in USD from cost-based routing",
		}),
	}

	reg.MustRegister(m.selections, m.fallbacks, m.saved)
	return m
}

// RecordSelection records one routing decision.
func (m *Metrics) RecordSelection(sel Selection) {
	complexity := string(sel.Complexity)
	if sel.Forced {
		complexity = "forced"
	}
	m.selections.WithLabelValues(sel.Model, sel.Provider, complexity).Inc()

	if sel.Fallback {
		m.fallbacks.Inc()
	}
	if sel.EstimatedSavings > 0 {
		m.saved.Add(sel.EstimatedSavings)
	}
}
