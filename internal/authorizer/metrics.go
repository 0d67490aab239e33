package authorizer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts authorizer decisions by effect. Reasons stay out of the
// labels: failure detail is log-only.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics registers the decision counter on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_authorizer_decisions_total",
			Help: "Authorizer decisions by effect.",
		}, []string{"effect"}),
	}
	reg.MustRegister(m.decisions)
	return m
}

// NopMetrics returns unregistered counters; used when no registry is wired.
func NopMetrics() *Metrics {
	return &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenantgate_authorizer_decisions_total",
		}, []string{"effect"}),
	}
}

func (m *Metrics) Allowed() { m.decisions.WithLabelValues("allow").Inc() }
func (m *Metrics) Denied()  { m.decisions.WithLabelValues("deny").Inc() }
