// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package complexity scores incoming analytics queries along six
// independent dimensions and derives an overall tier plus the
// specializations required to answer them.
package complexity

import (
	"context"
	"time"
)

// =============================================================================
// Complexity Tiers
// =============================================================================

// Tier is the ordinal complexity bucket of a query.
type Tier string

const (
	TierSimple   Tier = "simple"
	TierModerate Tier = "moderate"
	TierComplex  Tier = "complex"
	TierExpert   Tier = "expert"
)

// Ordinal maps a tier onto the scale simple < moderate < complex < expert.
// Unknown tiers map to moderate.
func (t Tier) Ordinal() int {
	switch t {
	case TierSimple:
		return 0
	case TierModerate:
		return 1
	case TierComplex:
		return 2
	case TierExpert:
		return 3
	default:
		return 1
	}
}

// TierFor buckets a mean dimension score into a tier. Thresholds are
// 0.3, 0.6 and 0.8, making the mapping monotonic in the mean.
func TierFor(mean float64) Tier {
	switch {
	case mean < 0.3:
		return TierSimple
	case mean < 0.6:
		return TierModerate
	case mean < 0.8:
		return TierComplex
	default:
		return TierExpert
	}
}

// =============================================================================
// Dimension Scores
// =============================================================================

// Dimensions holds the six independent 0-1 scores for a query.
type Dimensions struct {
	Semantic      float64 `json:"semantic"`
	Technical     float64 `json:"technical"`
	Analytical    float64 `json:"analytical"`
	Collaborative float64 `json:"collaborative"`
	Temporal      float64 `json:"temporal"`
	Comparative   float64 `json:"comparative"`
}

// Mean averages the six dimension scores.
func (d Dimensions) Mean() float64 {
	return (d.Semantic + d.Technical + d.Analytical + d.Collaborative + d.Temporal + d.Comparative) / 6
}

// InRange reports whether every dimension lies in [0, 1].
func (d Dimensions) InRange() bool {
	for _, v := range []float64{d.Semantic, d.Technical, d.Analytical, d.Collaborative, d.Temporal, d.Comparative} {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// =============================================================================
// Analysis Result
// =============================================================================

// Analysis is the immutable result of scoring one query. It is produced
// once per incoming query and consumed by the strategy generator.
type Analysis struct {
	Query                   string        `json:"query"`
	Dimensions              Dimensions    `json:"dimensions"`
	OverallComplexity       Tier          `json:"overall_complexity"`
	RequiredSpecializations []string      `json:"required_specializations"`
	EstimatedTime           time.Duration `json:"estimated_time"`
	Confidence              float64       `json:"confidence"`
	Fallback                bool          `json:"fallback,omitempty"`
}

// DimensionScorer produces the six raw dimension scores for a query.
// Implementations may be rule-based or model-backed; the analyzer treats
// any error or out-of-range result as grounds for the fixed fallback.
type DimensionScorer interface {
	Score(ctx context.Context, query, dataSourceHint string) (Dimensions, float64, error)
	Name() string
}

// =============================================================================
// Scorer Errors
// =============================================================================

// Scorer error codes.
const (
	ErrCodeTimeout          = "SCORER_TIMEOUT"
	ErrCodeParseError       = "SCORER_PARSE_ERROR"
	ErrCodeOutOfRange       = "SCORER_OUT_OF_RANGE"
	ErrCodeModelUnavailable = "SCORER_MODEL_UNAVAILABLE"
)

// ScoreError is a typed error from a dimension scorer.
type ScoreError struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// Retryable indicates if the error might resolve on retry.
	Retryable bool `json:"retryable"`
}

// Error implements the error interface.
func (e *ScoreError) Error() string {
	return e.Code + ": " + e.Message
}

// NewScoreError creates a new ScoreError.
func NewScoreError(code, message string, retryable bool) *ScoreError {
	return &ScoreError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
	}
}
