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
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("insight.router.complexity")

// =============================================================================
// Specialization Tags
// =============================================================================

const (
	TagProcurement = "procurement"
	TagRisk        = "risk"
	TagExecutive   = "executive"
	TagDataScience = "data_science"
)

// tagKeywords maps specialization tags to the query keywords that demand
// them. Matching is case-insensitive substring matching on the query.
var tagKeywords = []struct {
	tag      string
	keywords []string
}{
	{TagProcurement, []string{"supplier", "vendor", "procurement", "purchase", "sourcing", "contract"}},
	{TagRisk, []string{"risk", "compliance", "audit", "exposure", "fraud"}},
	{TagExecutive, []string{"executive", "board", "strategic", "c-suite"}},
	{TagDataScience, []string{"forecast", "predict", "regression", "correlation", "model", "anomaly"}},
}

// SpecializationTags returns the tags whose keywords appear in the query.
func SpecializationTags(query string) []string {
	lower := strings.ToLower(query)
	var tags []string
	for _, entry := range tagKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, entry.tag)
				break
			}
		}
	}
	return tags
}

// =============================================================================
// Analyzer
// =============================================================================

// baseEstimates is the per-tier processing-time baseline before any
// collaboration multipliers are applied downstream.
var baseEstimates = map[Tier]time.Duration{
	TierSimple:   5 * time.Second,
	TierModerate: 12 * time.Second,
	TierComplex:  25 * time.Second,
	TierExpert:   45 * time.Second,
}

// Analyzer scores queries through a pluggable DimensionScorer.
//
// # Description
//
// Analyze never returns an error: a scorer failure, timeout, or
// out-of-range result degrades to a fixed moderate fallback analysis so
// routing always proceeds.
//
// # Thread Safety
//
// Analyzer is safe for concurrent use as long as its scorer is.
type Analyzer struct {
	scorer  DimensionScorer
	timeout time.Duration
	logger  *slog.Logger
}

// AnalyzerConfig configures an Analyzer.
type AnalyzerConfig struct {
	// Scorer produces the raw dimension scores. Defaults to the
	// deterministic keyword scorer.
	Scorer DimensionScorer

	// ScoreTimeout bounds one scoring call. Defaults to 10s.
	ScoreTimeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewAnalyzer builds an Analyzer, filling config defaults.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	if cfg.Scorer == nil {
		cfg.Scorer = NewKeywordScorer()
	}
	if cfg.ScoreTimeout <= 0 {
		cfg.ScoreTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Analyzer{scorer: cfg.Scorer, timeout: cfg.ScoreTimeout, logger: cfg.Logger}
}

// Analyze scores a query and derives its tier, specializations, time
// estimate and confidence.
//
// # Inputs
//
//	ctx - Context for the scoring call.
//	query - The user's natural-language question.
//	dataSourceHint - Optional hint about the backing data source.
//
// # Outputs
//
//	Analysis - Always a usable analysis; Fallback is set when the
//	scorer could not be used.
func (a *Analyzer) Analyze(ctx context.Context, query, dataSourceHint string) Analysis {
	ctx, span := tracer.Start(ctx, "complexity.Analyze")
	defer span.End()

	start := time.Now()
	scoreCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	dims, confidence, err := a.scorer.Score(scoreCtx, query, dataSourceHint)
	switch {
	case err != nil:
		code := "unknown"
		var scoreErr *ScoreError
		if errors.As(err, &scoreErr) {
			code = scoreErr.Code
		}
		a.logger.Warn("complexity scorer failed, using fallback analysis",
			"scorer", a.scorer.Name(),
			"code", code,
			"error", err,
		)
		recordScoreOutcome(a.scorer.Name(), "error")
		return a.fallback(query)
	case !dims.InRange() || confidence < 0 || confidence > 1:
		a.logger.Warn("complexity scorer returned out-of-range values, using fallback analysis",
			"scorer", a.scorer.Name(),
		)
		recordScoreOutcome(a.scorer.Name(), "out_of_range")
		return a.fallback(query)
	}

	tier := TierFor(dims.Mean())
	analysis := Analysis{
		Query:                   query,
		Dimensions:              dims,
		OverallComplexity:       tier,
		RequiredSpecializations: SpecializationTags(query),
		EstimatedTime:           baseEstimates[tier],
		Confidence:              confidence,
	}

	recordScoreOutcome(a.scorer.Name(), "success")
	recordTier(tier)
	recordScoreLatency(a.scorer.Name(), time.Since(start).Seconds())

	span.SetAttributes(
		attribute.String("complexity.tier", string(tier)),
		attribute.Float64("complexity.mean", dims.Mean()),
		attribute.StringSlice("complexity.tags", analysis.RequiredSpecializations),
	)
	return analysis
}

// fallback is the fixed analysis used when scoring is unavailable.
func (a *Analyzer) fallback(query string) Analysis {
	recordTier(TierModerate)
	return Analysis{
		Query: query,
		Dimensions: Dimensions{
			Semantic:      0.4,
			Technical:     0.4,
			Analytical:    0.4,
			Collaborative: 0.3,
			Temporal:      0.4,
			Comparative:   0.4,
		},
		OverallComplexity:       TierModerate,
		RequiredSpecializations: SpecializationTags(query),
		EstimatedTime:           baseEstimates[TierModerate],
		Confidence:              0.6,
		Fallback:                true,
	}
}
