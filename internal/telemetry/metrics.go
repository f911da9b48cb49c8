// Package telemetry exposes Prometheus collectors for the optimization core.
// The engine only records; serving the registry is the embedding process's
// concern.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrialsTotal counts objective evaluations per strategy.
	TrialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weatherindex",
		Name:      "optimizer_trials_total",
		Help:      "Objective evaluations performed, by strategy.",
	}, []string{"strategy"})

	// StrategyRuns counts strategy outcomes: accepted, infeasible, failed,
	// or timeout.
	StrategyRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weatherindex",
		Name:      "strategy_runs_total",
		Help:      "Strategy runs by outcome.",
	}, []string{"strategy", "outcome"})

	// StrategyDuration observes wall-clock seconds per strategy run.
	StrategyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "weatherindex",
		Name:      "strategy_duration_seconds",
		Help:      "Wall-clock duration of strategy runs.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"strategy"})
)
