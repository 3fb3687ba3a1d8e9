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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		mean float64
		want Tier
	}{
		{0.0, TierSimple},
		{0.29, TierSimple},
		{0.3, TierModerate},
		{0.59, TierModerate},
		{0.6, TierComplex},
		{0.79, TierComplex},
		{0.8, TierExpert},
		{1.0, TierExpert},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.mean), "mean %.2f", tt.mean)
	}
}

func TestTierOrdinalOrdering(t *testing.T) {
	assert.Less(t, TierSimple.Ordinal(), TierModerate.Ordinal())
	assert.Less(t, TierModerate.Ordinal(), TierComplex.Ordinal())
	assert.Less(t, TierComplex.Ordinal(), TierExpert.Ordinal())
}

func TestSpecializationTags(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Show me top 5 suppliers by spend", []string{TagProcurement}},
		{"What compliance risks do our vendor contracts carry?", []string{TagProcurement, TagRisk}},
		{"Prepare a board summary of quarterly spend", []string{TagExecutive}},
		{"Forecast next quarter's demand", []string{TagDataScience}},
		{"How is the weather?", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpecializationTags(tt.query), "query %q", tt.query)
	}
}

func TestKeywordScorer_Deterministic(t *testing.T) {
	scorer := NewKeywordScorer()
	ctx := context.Background()

	first, conf1, err := scorer.Score(ctx, "Compare supplier spend trends over time", "spend_db")
	require.NoError(t, err)
	second, conf2, err := scorer.Score(ctx, "Compare supplier spend trends over time", "spend_db")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, conf1, conf2)
	assert.True(t, first.InRange())
}

func TestKeywordScorer_DimensionsTrackContent(t *testing.T) {
	scorer := NewKeywordScorer()
	ctx := context.Background()

	plain, _, _ := scorer.Score(ctx, "list invoices", "")
	temporal, _, _ := scorer.Score(ctx, "show the monthly trend of invoices over time this year", "")

	assert.Greater(t, temporal.Temporal, plain.Temporal)
}

func TestAnalyze_SimpleProcurementQuery(t *testing.T) {
	analyzer := NewAnalyzer(AnalyzerConfig{})

	analysis := analyzer.Analyze(context.Background(), "Show me top 5 suppliers by spend", "")

	assert.False(t, analysis.Fallback)
	assert.Contains(t, analysis.RequiredSpecializations, TagProcurement)
	assert.LessOrEqual(t, analysis.Dimensions.Collaborative, 0.6)
	assert.Equal(t, TierFor(analysis.Dimensions.Mean()), analysis.OverallComplexity)
	assert.Positive(t, analysis.EstimatedTime)
}

type failingScorer struct{ err error }

func (f *failingScorer) Score(context.Context, string, string) (Dimensions, float64, error) {
	return Dimensions{}, 0, f.err
}
func (f *failingScorer) Name() string { return "failing" }

func TestAnalyze_ScorerFailureFallsBack(t *testing.T) {
	analyzer := NewAnalyzer(AnalyzerConfig{Scorer: &failingScorer{err: errors.New("backend down")}})

	analysis := analyzer.Analyze(context.Background(), "Show supplier risk exposure", "")

	assert.True(t, analysis.Fallback)
	assert.Equal(t, TierModerate, analysis.OverallComplexity)
	assert.InDelta(t, 0.6, analysis.Confidence, 1e-9)
	// Tags are still derived lexically even without a scorer.
	assert.Contains(t, analysis.RequiredSpecializations, TagProcurement)
	assert.Contains(t, analysis.RequiredSpecializations, TagRisk)
	dims := analysis.Dimensions
	for _, v := range []float64{dims.Semantic, dims.Technical, dims.Analytical, dims.Collaborative, dims.Temporal, dims.Comparative} {
		assert.GreaterOrEqual(t, v, 0.3)
		assert.LessOrEqual(t, v, 0.5)
	}
}

type fixedScorer struct{ dims Dimensions }

func (f *fixedScorer) Score(context.Context, string, string) (Dimensions, float64, error) {
	return f.dims, 0.9, nil
}
func (f *fixedScorer) Name() string { return "fixed" }

func TestAnalyze_OutOfRangeScoresFallBack(t *testing.T) {
	analyzer := NewAnalyzer(AnalyzerConfig{Scorer: &fixedScorer{dims: Dimensions{Semantic: 1.4}}})

	analysis := analyzer.Analyze(context.Background(), "anything", "")
	assert.True(t, analysis.Fallback)
}

func TestParseScoreResponse(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		dims, conf, err := parseScoreResponse(`{"semantic":0.5,"technical":0.2,"analytical":0.7,"collaborative":0.1,"temporal":0.3,"comparative":0.6,"confidence":0.85}`)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, dims.Analytical, 1e-9)
		assert.InDelta(t, 0.85, conf, 1e-9)
	})

	t.Run("fenced with prose", func(t *testing.T) {
		dims, _, err := parseScoreResponse("Here you go:\n```json\n{\"semantic\":0.3,\"technical\":0.3,\"analytical\":0.3,\"collaborative\":0.3,\"temporal\":0.3,\"comparative\":0.3,\"confidence\":0.7}\n```")
		require.NoError(t, err)
		assert.InDelta(t, 0.3, dims.Semantic, 1e-9)
	})

	t.Run("no json", func(t *testing.T) {
		_, _, err := parseScoreResponse("I cannot rate that.")
		require.Error(t, err)
	})

	t.Run("out of range", func(t *testing.T) {
		_, _, err := parseScoreResponse(`{"semantic":1.5,"technical":0,"analytical":0,"collaborative":0,"temporal":0,"comparative":0}`)
		require.Error(t, err)
	})
}

func TestScoreError_Codes(t *testing.T) {
	var scoreErr *ScoreError

	_, _, err := parseScoreResponse("I cannot rate that.")
	require.ErrorAs(t, err, &scoreErr)
	assert.Equal(t, ErrCodeParseError, scoreErr.Code)
	assert.False(t, scoreErr.Retryable)

	_, _, err = parseScoreResponse(`{"semantic":1.5,"technical":0,"analytical":0,"collaborative":0,"temporal":0,"comparative":0}`)
	require.ErrorAs(t, err, &scoreErr)
	assert.Equal(t, ErrCodeOutOfRange, scoreErr.Code)

	assert.Equal(t, "SCORER_TIMEOUT: deadline exceeded",
		NewScoreError(ErrCodeTimeout, "deadline exceeded", true).Error())
}
