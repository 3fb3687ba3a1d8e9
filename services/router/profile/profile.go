// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package profile derives a per-call user context profile from
// persisted memory. Profiles are rebuilt on every routing call and
// never stored verbatim.
package profile

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/memory"
	"github.com/AleutianAI/AleutianInsight/services/router/complexity"
)

// =============================================================================
// Types
// =============================================================================

// ExpertiseTier classifies how experienced a user is with the system.
type ExpertiseTier string

const (
	ExpertiseBeginner     ExpertiseTier = "beginner"
	ExpertiseIntermediate ExpertiseTier = "intermediate"
	ExpertiseExpert       ExpertiseTier = "expert"
)

// AnalysisDepth is how much detail the user wants in responses.
type AnalysisDepth string

const (
	DepthSummary       AnalysisDepth = "summary"
	DepthDetailed      AnalysisDepth = "detailed"
	DepthComprehensive AnalysisDepth = "comprehensive"
)

// PerformanceSummary aggregates a user's history for routing decisions.
type PerformanceSummary struct {
	SuccessfulQueries int      `json:"successful_queries"`
	AverageComplexity float64  `json:"average_complexity"`
	PreferredAgents   []string `json:"preferred_agents"`
	CommonTopics      []string `json:"common_topics"`
}

// RecentContext is a snapshot of the user's current session.
type RecentContext struct {
	LastQueryTime time.Time `json:"last_query_time"`
	SessionLength int       `json:"session_length"`
	FocusTopics   []string  `json:"focus_topics"`
}

// UserContextProfile is the transient per-call profile consumed by the
// strategy generator. It is owned by exactly one routing call.
type UserContextProfile struct {
	UserID         string             `json:"user_id"`
	Expertise      ExpertiseTier      `json:"expertise"`
	Role           string             `json:"role"`
	PreferredDepth AnalysisDepth      `json:"preferred_depth"`
	Performance    PerformanceSummary `json:"performance"`
	Recent         RecentContext      `json:"recent"`
	Neutral        bool               `json:"neutral,omitempty"`
}

// SessionContext carries the caller-provided session state.
type SessionContext struct {
	SessionLength int      `json:"session_length"`
	FocusTopics   []string `json:"focus_topics"`
}

// =============================================================================
// Builder
// =============================================================================

// episodeSample is how much history feeds the expertise heuristic.
const episodeSample = 10

// Builder assembles profiles from the memory coordinator.
//
// # Thread Safety
//
// Builder is safe for concurrent use.
type Builder struct {
	mem    *memory.Coordinator
	logger *slog.Logger
	clock  func() time.Time
}

// NewBuilder builds a profile Builder over the memory coordinator. A nil
// coordinator yields neutral profiles for every call.
func NewBuilder(mem *memory.Coordinator, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{mem: mem, logger: logger, clock: time.Now}
}

// Build derives the profile for one routing call.
//
// # Description
//
// Pulls recent episodes and semantic facts, then applies the expertise
// heuristic: fewer than 3 episodes means beginner; otherwise the ratio
// of complex-or-harder episodes to total decides (>0.7 expert, >0.4
// intermediate, else beginner). Preferred depth follows role first,
// expertise second. Any memory failure degrades to a neutral profile so
// routing is never blocked.
func (b *Builder) Build(ctx context.Context, userID, role string, session SessionContext) UserContextProfile {
	if b.mem == nil || userID == "" {
		return b.neutral(userID, role, session)
	}

	episodes := b.mem.Episodes().Recent(ctx, userID, episodeSample)
	facts := b.mem.Semantic().Facts(ctx, userID, memory.DefaultFactLimit)
	patterns := b.mem.Patterns().Patterns(ctx, userID)

	prof := UserContextProfile{
		UserID:    userID,
		Expertise: expertiseFrom(episodes),
		Role:      role,
		Recent: RecentContext{
			SessionLength: session.SessionLength,
			FocusTopics:   session.FocusTopics,
		},
	}
	prof.PreferredDepth = depthFor(role, prof.Expertise)
	prof.Performance = summarize(episodes, facts, patterns)
	if len(episodes) > 0 {
		prof.Recent.LastQueryTime = episodes[0].StartTime
	}

	b.logger.Debug("built user profile",
		"user_id", userID,
		"expertise", prof.Expertise,
		"depth", prof.PreferredDepth,
		"episodes", len(episodes),
	)
	return prof
}

// neutral is the fallback profile used when memory is unavailable.
func (b *Builder) neutral(userID, role string, session SessionContext) UserContextProfile {
	return UserContextProfile{
		UserID:         userID,
		Expertise:      ExpertiseIntermediate,
		Role:           role,
		PreferredDepth: DepthDetailed,
		Recent: RecentContext{
			SessionLength: session.SessionLength,
			FocusTopics:   session.FocusTopics,
		},
		Neutral: true,
	}
}

// expertiseFrom applies the episode-ratio heuristic.
func expertiseFrom(episodes []memory.ConversationEpisode) ExpertiseTier {
	if len(episodes) < 3 {
		return ExpertiseBeginner
	}
	complexCount := 0
	for _, ep := range episodes {
		tier := complexity.Tier(ep.Complexity)
		if tier.Ordinal() >= complexity.TierComplex.Ordinal() {
			complexCount++
		}
	}
	ratio := float64(complexCount) / float64(len(episodes))
	switch {
	case ratio > 0.7:
		return ExpertiseExpert
	case ratio > 0.4:
		return ExpertiseIntermediate
	default:
		return ExpertiseBeginner
	}
}

// depthFor is role-driven with an expertise fallback.
func depthFor(role string, expertise ExpertiseTier) AnalysisDepth {
	if strings.EqualFold(role, "executive") {
		return DepthSummary
	}
	if expertise == ExpertiseExpert {
		return DepthComprehensive
	}
	return DepthDetailed
}

// summarize aggregates history into the performance summary.
func summarize(episodes []memory.ConversationEpisode, facts []memory.SemanticFact, patterns []memory.ProceduralPattern) PerformanceSummary {
	summary := PerformanceSummary{}

	var complexityTotal float64
	topicCounts := map[string]int{}
	for _, ep := range episodes {
		complexityTotal += float64(complexity.Tier(ep.Complexity).Ordinal())
		for _, topic := range ep.Topics {
			topicCounts[topic]++
		}
	}
	if len(episodes) > 0 {
		summary.AverageComplexity = complexityTotal / float64(len(episodes))
	}
	summary.CommonTopics = topTopics(topicCounts, 5)

	for _, pattern := range patterns {
		summary.SuccessfulQueries += int(pattern.SuccessRate * float64(pattern.UsageCount))
		if agent, ok := strings.CutPrefix(pattern.Action, "route:"); ok && agent != "" {
			summary.PreferredAgents = append(summary.PreferredAgents, agent)
		}
	}

	// Preference facts about agents count too, lowest priority.
	for _, fact := range facts {
		if fact.Category != memory.FactPreference {
			continue
		}
		if agent, ok := agentFromFact(fact.Fact); ok {
			summary.PreferredAgents = append(summary.PreferredAgents, agent)
		}
	}
	summary.PreferredAgents = dedupe(summary.PreferredAgents)
	return summary
}

// agentFromFact pulls an agent id out of facts shaped like
// "prefers agent <id>".
func agentFromFact(fact string) (string, bool) {
	lower := strings.ToLower(fact)
	idx := strings.Index(lower, "prefers agent ")
	if idx == -1 {
		return "", false
	}
	rest := strings.Fields(lower[idx+len("prefers agent "):])
	if len(rest) == 0 {
		return "", false
	}
	return strings.Trim(rest[0], ".,"), true
}

func topTopics(counts map[string]int, limit int) []string {
	topics := make([]string, 0, len(counts))
	for topic := range counts {
		topics = append(topics, topic)
	}
	sort.Slice(topics, func(i, j int) bool {
		if counts[topics[i]] != counts[topics[j]] {
			return counts[topics[i]] > counts[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}

func dedupe(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
