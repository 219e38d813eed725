package middleware

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jobhunterui/cvgen/pkg/quota"
)

// Decision outcome label values. Degraded outcomes are reported separately
// so an unavailable store is never mistaken for ordinary quota exhaustion.
const (
	outcomeAdmitted       = "admitted"
	outcomeDenied         = "denied"
	outcomeDegradedAdmit  = "degraded_admitted"
	outcomeDegradedDenied = "degraded_denied"
)

// QuotaMetrics counts admission decisions by outcome.
type QuotaMetrics struct {
	decisions *prometheus.CounterVec
}

// NewQuotaMetrics creates and registers the admission decision counter.
func NewQuotaMetrics(reg prometheus.Registerer) *QuotaMetrics {
	m := &QuotaMetrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvgen",
			Subsystem: "quota",
			Name:      "decisions_total",
			Help:      "Admission decisions partitioned by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.decisions)
	}

	return m
}

// observe records one admission decision.
func (m *QuotaMetrics) observe(result *quota.Result) {
	if m == nil {
		return
	}

	outcome := outcomeAdmitted
	switch {
	case result.Degraded && result.Admitted:
		outcome = outcomeDegradedAdmit
	case result.Degraded:
		outcome = outcomeDegradedDenied
	case !result.Admitted:
		outcome = outcomeDenied
	}

	m.decisions.WithLabelValues(outcome).Inc()
}
