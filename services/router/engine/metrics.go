// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Routing Decisions
// =============================================================================

var (
	// routingDecisions counts decisions by shape and outcome.
	// Labels: primary, collaboration, outcome (success, fallback, cache_hit)
	routingDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight_router",
		Subsystem: "engine",
		Name:      "decisions_total",
		Help:      "Routing decisions by primary agent, collaboration level and outcome",
	}, []string{"primary", "collaboration", "outcome"})

	// routeLatency measures full RouteQuery latency.
	routeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "insight_router",
		Subsystem: "engine",
		Name:      "route_latency_seconds",
		Help:      "End-to-end routing call latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	// decisionConfidence tracks the confidence of returned decisions.
	decisionConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "insight_router",
		Subsystem: "engine",
		Name:      "decision_confidence",
		Help:      "Expected confidence of routing decisions",
		Buckets:   []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1},
	})
)

func recordDecision(primary, collaboration, outcome string) {
	routingDecisions.WithLabelValues(primary, collaboration, outcome).Inc()
}

func recordRouteLatency(seconds float64) {
	routeLatency.Observe(seconds)
}

func recordConfidence(confidence float64) {
	decisionConfidence.Observe(confidence)
}
