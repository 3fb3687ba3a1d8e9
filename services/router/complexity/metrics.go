// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package complexity

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Complexity Analysis
// =============================================================================

var (
	// scoreOutcomes counts scoring calls by scorer and outcome.
	// Labels: scorer, outcome (success, error, out_of_range)
	scoreOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight_router",
		Subsystem: "complexity",
		Name:      "score_outcomes_total",
		Help:      "Complexity scoring calls by outcome",
	}, []string{"scorer", "outcome"})

	// tierAssignments counts analyses by resulting tier.
	// Labels: tier
	tierAssignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight_router",
		Subsystem: "complexity",
		Name:      "tier_assignments_total",
		Help:      "Query analyses by assigned complexity tier",
	}, []string{"tier"})

	// scoreLatency measures scoring call latency.
	// Labels: scorer
	scoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "insight_router",
		Subsystem: "complexity",
		Name:      "score_latency_seconds",
		Help:      "Complexity scoring latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
	}, []string{"scorer"})
)

func recordScoreOutcome(scorer, outcome string) {
	scoreOutcomes.WithLabelValues(scorer, outcome).Inc()
}

func recordTier(tier Tier) {
	tierAssignments.WithLabelValues(string(tier)).Inc()
}

func recordScoreLatency(scorer string, seconds float64) {
	scoreLatency.WithLabelValues(scorer).Observe(seconds)
}
