// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memory

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/cache"
)

// =============================================================================
// Procedural Pattern Store
// =============================================================================

// PatternStore persists condition→action patterns with running success rates.
//
// One pattern exists per user per coarse query category; the pattern id is
// derived from the category so repeated interactions in the same category
// update the same record.
type PatternStore struct {
	cache  *cache.Service
	logger *slog.Logger
	clock  func() time.Time
}

// NewPatternStore creates a procedural pattern store over the cache service.
func NewPatternStore(svc *cache.Service, logger *slog.Logger) *PatternStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatternStore{cache: svc, logger: logger, clock: time.Now}
}

// RecordOutcome updates (or creates) the pattern for a query category with
// one interaction outcome.
//
// # Description
//
// The first observation of a category creates the pattern with the
// interaction outcome as its initial sample. Subsequent observations fold
// into the running mean via ProceduralPattern.RecordOutcome.
//
// Inputs:
//
//	userID - The owning user.
//	label - The coarse query category (see ClassifyQuery).
//	action - What was done for the query (primary agent, collaboration).
//	success - Whether the interaction succeeded.
//
// Outputs:
//
//	ProceduralPattern - The updated pattern.
//	error - Non-nil if userID is empty.
func (s *PatternStore) RecordOutcome(ctx context.Context, userID, label, action string, success bool) (ProceduralPattern, error) {
	if userID == "" {
		return ProceduralPattern{}, ErrEmptyUserID
	}
	if label == "" {
		label = CategoryGeneral
	}

	id := "pattern-" + label
	now := s.clock().UTC()

	var pattern ProceduralPattern
	key := entityKey(KindProcedural, userID, id)
	if !s.cache.GetJSON(ctx, key, &pattern) {
		pattern = ProceduralPattern{
			ID:        id,
			UserID:    userID,
			Label:     label,
			Condition: "query_category=" + label,
		}
	}
	if action != "" {
		pattern.Action = action
	}
	pattern.RecordOutcome(success, now)

	if err := storeEntity(ctx, s.cache, KindProcedural, userID, id, pattern); err != nil {
		return ProceduralPattern{}, err
	}
	s.logger.Debug("updated procedural pattern",
		"user_id", userID,
		"label", label,
		"success_rate", pattern.SuccessRate,
		"usage_count", pattern.UsageCount,
	)
	return pattern, nil
}

// Patterns returns the user's patterns ranked by success rate descending.
func (s *PatternStore) Patterns(ctx context.Context, userID string) []ProceduralPattern {
	patterns := loadByIndex[ProceduralPattern](ctx, s.cache, KindProcedural, userID, 0)

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].SuccessRate > patterns[j].SuccessRate
	})
	return patterns
}

// =============================================================================
// Query Category Classification
// =============================================================================

// Coarse query categories used as procedural pattern keys.
const (
	CategoryVariance = "variance"
	CategoryTrend    = "trend"
	CategorySupplier = "supplier"
	CategoryCost     = "cost"
	CategoryGeneral  = "general"
)

// categoryKeywords maps categories to their trigger words. First match in
// declaration order wins, so more specific categories come first.
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{CategoryVariance, []string{"variance", "deviation", "versus budget", "vs budget", "budget vs"}},
	{CategoryTrend, []string{"trend", "over time", "growth", "forecast", "trajectory", "month over month", "year over year"}},
	{CategorySupplier, []string{"supplier", "vendor", "procurement"}},
	{CategoryCost, []string{"cost", "spend", "expense", "price", "pricing"}},
}

// ClassifyQuery maps a query to its coarse procedural category.
func ClassifyQuery(query string) string {
	lower := strings.ToLower(query)
	for _, entry := range categoryKeywords {
		for _, word := range entry.words {
			if strings.Contains(lower, word) {
				return entry.category
			}
		}
	}
	return CategoryGeneral
}
