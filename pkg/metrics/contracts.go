package metrics

import "github.com/prometheus/client_golang/prometheus"

// ContractMetrics counts lifecycle transitions by contract kind and action.
type ContractMetrics struct {
	transitions *prometheus.CounterVec
}

// NewContractMetrics registers the transition counter on the provided registerer.
func NewContractMetrics(reg prometheus.Registerer) *ContractMetrics {
	if reg == nil {
		return &ContractMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "contract_transitions_total",
		Help: "Contract state transitions by kind, action and outcome.",
	}, []string{"kind", "action", "outcome"})
	reg.MustRegister(transitions)
	return &ContractMetrics{transitions: transitions}
}

// IncTransition records one transition attempt outcome.
func (c *ContractMetrics) IncTransition(kind, action, outcome string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(kind), normalizeLabel(action), normalizeLabel(outcome)).Inc()
}
