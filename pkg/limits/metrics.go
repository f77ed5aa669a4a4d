package limits

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains Prometheus metrics for the limits package.
//
// Metrics:
//   - codechat_limits_admitted_total: Requests admitted by the limiter
//   - codechat_limits_rejected_total: Requests rejected, labeled by reason
//   - codechat_limits_fail_open_total: Requests admitted after storage failure
//   - codechat_limits_cost_total: Total cost recorded in USD
//   - codechat_limits_daily_cost: Running cost total for the current day
type Metrics struct {
	admitted  prometheus.Counter
	rejected  *prometheus.CounterVec
	failOpen  prometheus.Counter
	costTotal prometheus.Counter
	dailyCost prometheus.Gauge
}

// NewMetrics creates limiter metrics and registers them with the given
// registerer. It panics on duplicate registration, so construct it once
// per process.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codechat",
			Subsystem: "limits",
			Name:      "admitted_total",
			Help:      "Total number of requests admitted by the rate limiter",
		}),

		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "codechat",
				Subsystem: "limits",
				Name:      "rejected_total",
				Help:      "Total number of requests rejected, by reason",
			},
			[]string{"reason"},
		),

		failOpen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codechat",
			Subsystem: "limits",
			Name:      "fail_open_total",
			Help:      "Total number of requests admitted after a storage failure",
		}),

		costTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codechat",
			Subsystem: "limits",
			Name:      "cost_total",
			Help:      "Total recorded cost in USD",
		}),

		dailyCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "codechat",
			Subsystem: "limits",
			Name:      "daily_cost",
			Help:      "Running cost total in USD for the current day",
		}),
	}

	reg.MustRegister(
		m.admitted,
		m.rejected,
		m.failOpen,
		m.costTotal,
		m.dailyCost,
	)

	return m
}

// RecordAdmitted records an admitted request.
func (m *Metrics) RecordAdmitted() {
	m.admitted.Inc()
}

// RecordRejected records a rejected request with its reason.
func (m *Metrics) RecordRejected(reason RejectReason) {
	m.rejected.WithLabelValues(string(reason)).Inc()
}

// RecordFailOpen records a request admitted because the store was unavailable.
func (m *Metrics) RecordFailOpen() {
	m.failOpen.Inc()
}

// RecordCost records a cost increment and the resulting daily total.
func (m *Metrics) RecordCost(amount, total float64) {
	if amount > 0 {
		m.costTotal.Add(amount)
	}
	m.dailyCost.Set(total)
}
