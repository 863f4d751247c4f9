package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeOK         = "ok"
	outcomeRejected   = "rejected"
	outcomeBadRequest = "bad_request"
	outcomeNotFound   = "not_found"
)

type metrics struct {
	reg        *prometheus.Registry
	actions    *prometheus.CounterVec
	sessions   prometheus.Gauge
	overBudget prometheus.Gauge
}

// newMetrics builds a private registry so several servers (and tests) can
// coexist in one process.
func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payplan_actions_total",
			Help: "Session actions handled, by action and outcome.",
		}, []string{"action", "outcome"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "payplan_sessions",
			Help: "Live sessions.",
		}),
		overBudget: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "payplan_over_budget_sessions",
			Help: "Live sessions whose distributed total exceeds the budget.",
		}),
	}
	m.reg.MustRegister(
		m.actions,
		m.sessions,
		m.overBudget,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *metrics) action(name, outcome string) {
	m.actions.WithLabelValues(name, outcome).Inc()
}

// overBudgetChanged moves the over-budget gauge when a session crosses the
// line in either direction.
func (m *metrics) overBudgetChanged(before, after bool) {
	switch {
	case !before && after:
		m.overBudget.Inc()
	case before && !after:
		m.overBudget.Dec()
	}
}
