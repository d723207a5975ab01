package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "relay"

// Metrics holds relay counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	routes     *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	blocked    prometheus.Gauge
}

// New creates relay metrics and registers them in reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_total",
			Help:      "Routed inbound updates by result.",
		}, []string{"result"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Outbound sends by content kind and status.",
		}, []string{"kind", "status"}),
		blocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blocked_users",
			Help:      "Number of blocked users.",
		}),
	}

	reg.MustRegister(m.routes, m.deliveries, m.blocked)

	return m
}

func (m *Metrics) ObserveRoute(result string) {
	if m == nil {
		return
	}
	m.routes.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveDelivery(kind string, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	m.deliveries.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) SetBlocked(n int) {
	if m == nil {
		return
	}
	m.blocked.Set(float64(n))
}
