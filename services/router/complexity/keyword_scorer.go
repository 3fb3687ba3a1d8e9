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
	"strings"
)

// =============================================================================
// Keyword Scorer
// =============================================================================

// KeywordScorer is the default deterministic dimension scorer. It derives
// each score from lexical features of the query, so identical queries
// always produce identical analyses.
type KeywordScorer struct{}

func NewKeywordScorer() *KeywordScorer { return &KeywordScorer{} }

func (s *KeywordScorer) Name() string { return "keyword" }

var (
	technicalTerms = []string{
		"sql", "join", "schema", "database", "table", "pipeline",
		"api", "etl", "index", "materialized",
	}
	analyticalTerms = []string{
		"analyze", "analysis", "variance", "breakdown", "distribution",
		"aggregate", "drill", "average", "margin", "forecast",
		"correlation", "regression", "anomaly",
	}
	collaborativeTerms = []string{
		"across", "overall", "comprehensive", "holistic", "combined",
		"departments", "end-to-end", "strategy", "multiple teams",
	}
	temporalTerms = []string{
		"trend", "over time", "month", "quarter", "year", "week",
		"seasonal", "history", "since", "yoy",
	}
	comparativeTerms = []string{
		"compare", "versus", " vs ", "top ", "bottom ", "rank",
		"highest", "lowest", "more than", "less than", "against",
	}
	ambiguousTerms = []string{"best", "why", "should", "better", "insight"}
)

// Score implements DimensionScorer. It never fails.
func (s *KeywordScorer) Score(_ context.Context, query, dataSourceHint string) (Dimensions, float64, error) {
	lower := strings.ToLower(query)

	dims := Dimensions{
		Semantic:      semanticScore(lower),
		Technical:     hitScore(lower, technicalTerms, 0.1, 0.2),
		Analytical:    hitScore(lower, analyticalTerms, 0.1, 0.2),
		Collaborative: hitScore(lower, collaborativeTerms, 0.1, 0.25),
		Temporal:      hitScore(lower, temporalTerms, 0.1, 0.25),
		Comparative:   hitScore(lower, comparativeTerms, 0.1, 0.25),
	}
	if dataSourceHint != "" {
		dims.Technical = clamp01(dims.Technical + 0.1)
	}
	return dims, 0.75, nil
}

// semanticScore grows with query length and ambiguity. Longer, vaguer
// questions need more interpretation.
func semanticScore(lower string) float64 {
	words := len(strings.Fields(lower))
	var score float64
	switch {
	case words <= 6:
		score = 0.2
	case words <= 12:
		score = 0.4
	case words <= 20:
		score = 0.6
	default:
		score = 0.8
	}
	for _, term := range ambiguousTerms {
		if strings.Contains(lower, term) {
			score += 0.1
			break
		}
	}
	return clamp01(score)
}

// hitScore is base plus perHit for every matched term, clamped to [0,1].
func hitScore(lower string, terms []string, base, perHit float64) float64 {
	score := base
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += perHit
		}
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
