// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for the Cache Layer
// =============================================================================

var (
	// cacheOps counts store operations.
	// Labels: tier (durable, memory), op (get, set, delete, scan),
	// status (hit, miss, ok, error)
	cacheOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight_router",
		Subsystem: "cache",
		Name:      "ops_total",
		Help:      "Cache store operations by tier, operation, and status",
	}, []string{"tier", "op", "status"})

	// cacheFallbacks counts transitions from the durable tier to the
	// in-process tier. Labels: reason (unreachable, timeout)
	cacheFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight_router",
		Subsystem: "cache",
		Name:      "fallbacks_total",
		Help:      "Transitions from the durable store to the in-process tier",
	}, []string{"reason"})

	// cacheRecoveries counts re-probe successes that restore the durable tier.
	cacheRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "insight_router",
		Subsystem: "cache",
		Name:      "recoveries_total",
		Help:      "Successful durable store re-probes after fallback",
	})

	// cacheEvictions counts entries evicted from the bounded memory tier.
	// Labels: tier
	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insight_router",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Entries evicted to respect the memory tier size bound",
	}, []string{"tier"})

	// cacheOpLatency measures store operation latency.
	// Labels: tier, op
	cacheOpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "insight_router",
		Subsystem: "cache",
		Name:      "op_latency_seconds",
		Help:      "Cache operation latency in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1.0},
	}, []string{"tier", "op"})
)

func recordOp(tier, op, status string) {
	cacheOps.WithLabelValues(tier, op, status).Inc()
}

func recordFallback(reason string) {
	cacheFallbacks.WithLabelValues(reason).Inc()
}

func recordRecovery() {
	cacheRecoveries.Inc()
}

func recordEviction(tier string) {
	cacheEvictions.WithLabelValues(tier).Inc()
}

func recordLatency(tier, op string, seconds float64) {
	cacheOpLatency.WithLabelValues(tier, op).Observe(seconds)
}
