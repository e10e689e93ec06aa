package biz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	listAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "placefinder",
		Subsystem: "list",
		Name:      "attempts_total",
		Help:      "List query attempts by strategy, count mode and outcome.",
	}, []string{"strategy", "count", "outcome"})

	fallbackAdopted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "placefinder",
		Subsystem: "list",
		Name:      "fallback_adopted_total",
		Help:      "Fallback candidates whose rows replaced an empty primary result.",
	}, []string{"strategy"})

	statsBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "placefinder",
		Subsystem: "stats",
		Name:      "batches_total",
		Help:      "Review stats batch queries by outcome.",
	}, []string{"outcome"})
)
