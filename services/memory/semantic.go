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
	"github.com/google/uuid"
)

// =============================================================================
// Semantic Fact Store
// =============================================================================

// SemanticStore persists durable facts about users.
//
// # Description
//
// New facts get a fresh id; a fact whose text matches an existing one (case
// and whitespace insensitive) reinforces it instead: confidence is bumped,
// sources are merged, and LastUpdated advances. Facts are never hard
// deleted, only TTL-expired.
type SemanticStore struct {
	cache  *cache.Service
	logger *slog.Logger
	clock  func() time.Time
}

// NewSemanticStore creates a semantic fact store over the cache service.
func NewSemanticStore(svc *cache.Service, logger *slog.Logger) *SemanticStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticStore{cache: svc, logger: logger, clock: time.Now}
}

// reinforcementBoost is added to a fact's confidence each time it is
// re-observed, clamped at 0.95 so no inferred fact reads as certain.
const reinforcementBoost = 0.1

// Upsert stores a new fact or reinforces an existing one.
//
// Inputs:
//
//	fact - The fact to store. ID may be empty; one is assigned.
//
// Outputs:
//
//	error - Non-nil if the fact fails validation.
func (s *SemanticStore) Upsert(ctx context.Context, fact SemanticFact) error {
	if fact.Confidence == 0 {
		fact.Confidence = 0.6
	}
	if err := fact.Validate(); err != nil {
		return err
	}

	now := s.clock().UTC()
	normalized := normalizeFactText(fact.Fact)

	// Reinforcement: same statement observed again.
	for _, existing := range s.Facts(ctx, fact.UserID, 0) {
		if normalizeFactText(existing.Fact) != normalized {
			continue
		}
		existing.Confidence = min(existing.Confidence+reinforcementBoost, 0.95)
		existing.LastUpdated = now
		existing.Sources = mergeSources(existing.Sources, fact.Sources)
		s.logger.Debug("reinforced semantic fact",
			"user_id", fact.UserID,
			"fact_id", existing.ID,
			"confidence", existing.Confidence,
		)
		return storeEntity(ctx, s.cache, KindSemantic, fact.UserID, existing.ID, existing)
	}

	fact.ID = uuid.NewString()
	fact.LastUpdated = now
	return storeEntity(ctx, s.cache, KindSemantic, fact.UserID, fact.ID, fact)
}

// Facts returns the user's facts ranked by confidence descending.
// limit <= 0 returns all.
func (s *SemanticStore) Facts(ctx context.Context, userID string, limit int) []SemanticFact {
	// Load the full index before ranking; the index is recency-ordered but
	// retrieval is confidence-ordered.
	facts := loadByIndex[SemanticFact](ctx, s.cache, KindSemantic, userID, 0)

	sort.SliceStable(facts, func(i, j int) bool {
		return facts[i].Confidence > facts[j].Confidence
	})
	if limit > 0 && len(facts) > limit {
		facts = facts[:limit]
	}
	return facts
}

func normalizeFactText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func mergeSources(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(added))
	for _, src := range existing {
		seen[src] = true
		merged = append(merged, src)
	}
	for _, src := range added {
		if !seen[src] {
			seen[src] = true
			merged = append(merged, src)
		}
	}
	return merged
}
