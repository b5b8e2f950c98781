package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckOffMetrics counts check-off outcomes, including the secondary steps
// that degraded without failing the request.
type CheckOffMetrics struct {
	checkoffs *prometheus.CounterVec
	degraded  *prometheus.CounterVec
}

func NewCheckOffMetrics(reg prometheus.Registerer) *CheckOffMetrics {
	if reg == nil {
		return &CheckOffMetrics{}
	}
	checkoffs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkoffs_total",
		Help:      "Shopping list check-offs by trip resolution.",
	}, []string{"trip"})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkoff_degraded_steps_total",
		Help:      "Secondary check-off steps that failed after the item was checked.",
	}, []string{"step"})
	reg.MustRegister(checkoffs, degraded)
	return &CheckOffMetrics{checkoffs: checkoffs, degraded: degraded}
}

// IncCheckOff records a completed check-off. trip is the resolution branch,
// or "none" when no store context was given.
func (c *CheckOffMetrics) IncCheckOff(trip string) {
	if c == nil || c.checkoffs == nil {
		return
	}
	c.checkoffs.WithLabelValues(normalizeLabel(trip)).Inc()
}

func (c *CheckOffMetrics) IncDegraded(step string) {
	if c == nil || c.degraded == nil {
		return
	}
	c.degraded.WithLabelValues(normalizeLabel(step)).Inc()
}
