package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationsTotal counts credit reservations by outcome code.
	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interviewd",
		Name:      "reservations_total",
		Help:      "Credit reservation attempts by outcome.",
	}, []string{"outcome"})

	// ReconciledTotal counts reconciliation sweep results.
	ReconciledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interviewd",
		Name:      "reconciled_interviews_total",
		Help:      "Interviews touched by reconciliation sweeps, by result.",
	}, []string{"result"})
)
