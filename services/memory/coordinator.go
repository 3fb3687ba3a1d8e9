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
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/AleutianInsight/services/cache"
)

// =============================================================================
// Memory Coordinator
// =============================================================================

// Coordinator aggregates the three memory kinds into one context object per
// user and writes back the outcome of each interaction.
//
// # Description
//
// Retrieval ranks semantic facts by confidence, episodes by recency, and
// patterns by success rate, capping facts and episodes. Write-back infers
// new semantic facts from preference-indicating language and folds the
// interaction outcome into the procedural pattern for the query's coarse
// category.
//
// Memory-retrieval failures are treated as "no prior context", never as
// errors: routing must not block on memory.
//
// # Thread Safety
//
// Safe for concurrent use; all state lives in the cache service.
type Coordinator struct {
	semantic  *SemanticStore
	episodes  *EpisodeStore
	patterns  *PatternStore
	logger    *slog.Logger
	factLimit int
	epLimit   int
}

// NewCoordinator wires the three stores over one cache service.
func NewCoordinator(svc *cache.Service, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		semantic:  NewSemanticStore(svc, logger),
		episodes:  NewEpisodeStore(svc, logger),
		patterns:  NewPatternStore(svc, logger),
		logger:    logger,
		factLimit: DefaultFactLimit,
		epLimit:   DefaultEpisodeLimit,
	}
}

// Semantic exposes the underlying fact store.
func (c *Coordinator) Semantic() *SemanticStore { return c.semantic }

// Episodes exposes the underlying episode store.
func (c *Coordinator) Episodes() *EpisodeStore { return c.episodes }

// Patterns exposes the underlying pattern store.
func (c *Coordinator) Patterns() *PatternStore { return c.patterns }

// ComprehensiveContext assembles everything remembered about a user that is
// relevant to one query.
//
// Outputs:
//
//	Context - Ranked, capped memory lists plus a summary digest. Empty
//	          lists when the user has no history or retrieval fails.
func (c *Coordinator) ComprehensiveContext(ctx context.Context, userID, query string) Context {
	memCtx := Context{
		SemanticFacts:    c.semantic.Facts(ctx, userID, c.factLimit),
		RecentEpisodes:   c.episodes.Recent(ctx, userID, c.epLimit),
		RelevantPatterns: c.patterns.Patterns(ctx, userID),
	}
	memCtx.Summary = summarize(memCtx, query)
	return memCtx
}

// StoreInteractionResults writes back the outcome of one interaction.
//
// # Description
//
// Three effects, each independent and best-effort:
//  1. Preference-indicating language in the response or insights becomes
//     (or reinforces) a semantic fact.
//  2. The procedural pattern for the query's coarse category absorbs the
//     success/failure outcome.
//  3. Nothing episodic: episodes are recorded separately when a
//     conversation completes (see EpisodeStore.Record).
//
// Inputs:
//
//	userID - The owning user.
//	conversationID - Source conversation, recorded on inferred facts.
//	query - The routed query.
//	response - The generated response text.
//	success - Whether the interaction succeeded.
//	insights - Extracted insight strings, may be empty.
func (c *Coordinator) StoreInteractionResults(ctx context.Context, userID, conversationID, query, response string, success bool, insights []string) {
	if userID == "" {
		return
	}

	for _, candidate := range append([]string{response}, insights...) {
		statement, ok := extractPreference(candidate)
		if !ok {
			continue
		}
		fact := SemanticFact{
			UserID:     userID,
			Fact:       statement,
			Category:   FactPreference,
			Confidence: 0.6,
			Sources:    []string{conversationID},
		}
		if err := c.semantic.Upsert(ctx, fact); err != nil {
			c.logger.Warn("failed to store inferred fact", "user_id", userID, "error", err)
		}
	}

	label := ClassifyQuery(query)
	if _, err := c.patterns.RecordOutcome(ctx, userID, label, "", success); err != nil {
		c.logger.Warn("failed to update procedural pattern",
			"user_id", userID,
			"label", label,
			"error", err,
		)
	}
}

// =============================================================================
// Inference Helpers
// =============================================================================

// preferenceMarkers flag sentences worth remembering as user preferences.
var preferenceMarkers = []string{
	"prefer",
	"i like",
	"i'd rather",
	"always show",
	"don't show",
	"instead of",
	"favorite",
}

// extractPreference returns the first sentence of text containing a
// preference marker.
func extractPreference(text string) (string, bool) {
	lower := strings.ToLower(text)
	marked := false
	for _, marker := range preferenceMarkers {
		if strings.Contains(lower, marker) {
			marked = true
			break
		}
	}
	if !marked {
		return "", false
	}

	for _, sentence := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '\n'
	}) {
		lowerSentence := strings.ToLower(sentence)
		for _, marker := range preferenceMarkers {
			if strings.Contains(lowerSentence, marker) {
				return strings.TrimSpace(sentence), true
			}
		}
	}
	return "", false
}

// summarize produces a short digest of the context for prompt assembly.
func summarize(memCtx Context, query string) string {
	var parts []string

	if n := len(memCtx.RecentEpisodes); n > 0 {
		topics := topicSet(memCtx.RecentEpisodes)
		if len(topics) > 0 {
			parts = append(parts, fmt.Sprintf("%d recent conversations covering %s", n, strings.Join(topics, ", ")))
		} else {
			parts = append(parts, fmt.Sprintf("%d recent conversations", n))
		}
	}
	if n := len(memCtx.SemanticFacts); n > 0 {
		parts = append(parts, fmt.Sprintf("%d known facts about the user", n))
	}
	if label := ClassifyQuery(query); label != CategoryGeneral {
		for _, pattern := range memCtx.RelevantPatterns {
			if pattern.Label == label {
				parts = append(parts, fmt.Sprintf("past %s queries succeeded %.0f%% of the time", label, pattern.SuccessRate*100))
				break
			}
		}
	}

	if len(parts) == 0 {
		return "no prior context"
	}
	return strings.Join(parts, "; ")
}

// topicSet collects up to five distinct topics across episodes.
func topicSet(episodes []ConversationEpisode) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, ep := range episodes {
		for _, topic := range ep.Topics {
			if !seen[topic] && len(topics) < 5 {
				seen[topic] = true
				topics = append(topics, topic)
			}
		}
	}
	return topics
}
