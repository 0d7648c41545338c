package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReservationMetrics tracks admin decisions and allocation outcomes.
type ReservationMetrics struct {
	decisions          *prometheus.CounterVec
	allocationFailures prometheus.Counter
}

// NewReservationMetrics registers reservation counters on the provided registerer.
func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	if reg == nil {
		return &ReservationMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_decisions_total",
		Help: "Reservation decisions partitioned by outcome.",
	}, []string{"outcome"})
	allocationFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reservation_allocation_failures_total",
		Help: "Approvals that failed because no compatible slot was available.",
	})
	reg.MustRegister(decisions, allocationFailures)
	return &ReservationMetrics{
		decisions:          decisions,
		allocationFailures: allocationFailures,
	}
}

// IncDecision increments the decision counter for the given outcome label.
func (r *ReservationMetrics) IncDecision(outcome string) {
	if r == nil || r.decisions == nil {
		return
	}
	r.decisions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncAllocationFailure increments the failed-allocation counter.
func (r *ReservationMetrics) IncAllocationFailure() {
	if r == nil || r.allocationFailures == nil {
		return
	}
	r.allocationFailures.Inc()
}
