package usecasees

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricConst int

const (
	MetricOrderFilled MetricConst = iota
	MetricOrderPartialFill
	MetricOrderRejected
	MetricOrderCancelled
	MetricRouteDispatched
	MetricRouteMissed
	MetricRiskExit
	MetricReconcileAdopted
)

func (m MetricConst) ToString() string {
	switch m {
	case MetricOrderFilled:
		return "order_filled_total"
	case MetricOrderPartialFill:
		return "order_partial_fill_total"
	case MetricOrderRejected:
		return "order_rejected_total"
	case MetricOrderCancelled:
		return "order_cancelled_total"
	case MetricRouteDispatched:
		return "route_dispatched_total"
	case MetricRouteMissed:
		return "route_missed_total"
	case MetricRiskExit:
		return "risk_exit_total"
	case MetricReconcileAdopted:
		return "reconcile_adopted_total"
	}

	return "unknown"
}

type Metrics struct {
	Order map[MetricConst]prometheus.Counter
}

func NewMetrics() *Metrics {
	metrics := Metrics{Order: map[MetricConst]prometheus.Counter{}}

	for _, c := range []MetricConst{
		MetricOrderFilled,
		MetricOrderPartialFill,
		MetricOrderRejected,
		MetricOrderCancelled,
		MetricRouteDispatched,
		MetricRouteMissed,
		MetricRiskExit,
		MetricReconcileAdopted,
	} {
		metrics.Order[c] = promauto.NewCounter(prometheus.CounterOpts{
			Name: c.ToString(),
			Help: c.ToString(),
		})
	}

	return &metrics
}

// Inc is nil-safe so components can run without a registry in tests.
func (m *Metrics) Inc(c MetricConst) {
	if m == nil {
		return
	}

	if counter, ok := m.Order[c]; ok {
		counter.Inc()
	}
}
