package auth

import "github.com/prometheus/client_golang/prometheus"

// Login flows counted by Metrics.
const (
	FlowRedirect      = "redirect"
	FlowSilent        = "silent"
	FlowCallback      = "callback"
	FlowTokenExchange = "token_exchange"
	FlowRefresh       = "refresh"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

type Metrics struct {
	logins *prometheus.CounterVec
}

// NewMetrics registers the auth counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "synco_auth_logins_total",
			Help: "Authentication attempts by flow and outcome.",
		}, []string{"flow", "outcome"}),
	}
	reg.MustRegister(m.logins)
	return m
}

func (m *Metrics) observe(flow string, err error) {
	if m == nil {
		return
	}
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}
	m.logins.WithLabelValues(flow, outcome).Inc()
}
