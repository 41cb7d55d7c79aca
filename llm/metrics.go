package llm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts chat outcomes. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	degraded *prometheus.CounterVec
}

// NewMetrics registers the chat counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liarsbar",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Chat requests by model and outcome (ok, empty, degraded).",
		}, []string{"model", "outcome"}),
		degraded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "liarsbar",
			Subsystem: "chat",
			Name:      "degraded_total",
			Help:      "Chat requests that degraded to an empty result, by error kind.",
		}, []string{"model", "error_kind"}),
	}
}

func (m *Metrics) observe(model string, result ChatResult, kind ErrorKind) {
	if m == nil {
		return
	}
	switch {
	case kind != 0:
		m.requests.WithLabelValues(model, "degraded").Inc()
		m.degraded.WithLabelValues(model, kind.String()).Inc()
	case result.Empty():
		m.requests.WithLabelValues(model, "empty").Inc()
	default:
		m.requests.WithLabelValues(model, "ok").Inc()
	}
}
