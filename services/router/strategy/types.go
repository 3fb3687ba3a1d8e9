// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package strategy turns a complexity analysis, a user profile and the
// capability registry snapshot into a routing decision with bounded
// alternatives.
package strategy

import (
	"time"
)

// =============================================================================
// Collaboration Levels
// =============================================================================

// CollaborationLevel is how many specialists jointly contribute to one
// answer.
type CollaborationLevel string

const (
	CollabNone   CollaborationLevel = "none"
	CollabReview CollaborationLevel = "review"
	CollabFull   CollaborationLevel = "full_collaboration"
)

// =============================================================================
// Strategies and Decisions
// =============================================================================

// RoutingStrategy is one concrete way to route a query. Immutable once
// emitted.
type RoutingStrategy struct {
	PrimaryAgent       string             `json:"primary_agent"`
	SupportingAgents   []string           `json:"supporting_agents,omitempty"`
	Collaboration      CollaborationLevel `json:"collaboration"`
	ExpectedConfidence float64            `json:"expected_confidence"`
	EstimatedTime      time.Duration      `json:"estimated_time"`
	FallbackAgents     []string           `json:"fallback_agents,omitempty"`
}

// RoutingDecision wraps the live strategy with its reasoning, the
// alternatives, and what shaped it. This is the unit returned to the
// caller and persisted to memory.
type RoutingDecision struct {
	Strategy             RoutingStrategy   `json:"strategy"`
	Reasoning            []string          `json:"reasoning"`
	Alternatives         []RoutingStrategy `json:"alternatives,omitempty"`
	ContextFactors       []string          `json:"context_factors,omitempty"`
	OptimizationsApplied []string          `json:"optimizations_applied,omitempty"`
	Fallback             bool              `json:"fallback,omitempty"`
}

// =============================================================================
// Calibration Weights
// =============================================================================

// Weights holds the calibration constants for confidence and time
// arithmetic. The defaults are a starting calibration, not measured
// values; operators can tune them, and the success-rate feedback in
// procedural memory is the natural source for learned replacements.
type Weights struct {
	SuitabilityBonus     float64       // added when the primary covers the query tier
	SupportingAgentBonus float64       // added per supporting agent
	ConfidenceFloor      float64       // lower clamp on expected confidence
	ConfidenceCeiling    float64       // upper clamp on expected confidence
	ReviewTimeFactor     float64       // time multiplier for review
	FullCollabTimeFactor float64       // time multiplier for full_collaboration
	SupportingOverhead   time.Duration // added per supporting agent
	MinimumTime          time.Duration // floor on the estimate

	HighLoadThreshold float64 // primary load above this triggers load balancing
	LowLoadThreshold  float64 // fallback load must be below this to swap

	SingleConfidenceFactor float64 // alternative: single-agent
	SingleTimeFactor       float64
	FullConfidenceFactor   float64 // alternative: full collaboration
	FullTimeFactor         float64
	DiffConfidenceFactor   float64 // alternative: different primary
	DiffTimeFactor         float64
}

// DefaultWeights returns the standard calibration.
func DefaultWeights() Weights {
	return Weights{
		SuitabilityBonus:     0.1,
		SupportingAgentBonus: 0.05,
		ConfidenceFloor:      0.5,
		ConfidenceCeiling:    0.95,
		ReviewTimeFactor:     1.3,
		FullCollabTimeFactor: 1.8,
		SupportingOverhead:   3 * time.Second,
		MinimumTime:          2 * time.Second,

		HighLoadThreshold: 0.8,
		LowLoadThreshold:  0.5,

		SingleConfidenceFactor: 0.8,
		SingleTimeFactor:       0.6,
		FullConfidenceFactor:   1.1,
		FullTimeFactor:         1.5,
		DiffConfidenceFactor:   0.9,
		DiffTimeFactor:         1.1,
	}
}

// clampConfidence bounds a confidence to the configured range.
func (w Weights) clampConfidence(v float64) float64 {
	if v < w.ConfidenceFloor {
		return w.ConfidenceFloor
	}
	if v > w.ConfidenceCeiling {
		return w.ConfidenceCeiling
	}
	return v
}
