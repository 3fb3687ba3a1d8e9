// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package strategy

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/router/complexity"
	"github.com/AleutianAI/AleutianInsight/services/router/profile"
	"github.com/AleutianAI/AleutianInsight/services/router/registry"
)

// =============================================================================
// Strategy Generator
// =============================================================================

// Generator applies the deterministic rule cascade that picks a primary
// agent, supporting agents and collaboration level.
//
// # Thread Safety
//
// Generator is stateless after construction and safe for concurrent use.
type Generator struct {
	weights Weights
	logger  *slog.Logger
}

// NewGenerator builds a Generator with the given weights. Zero-value
// weights are replaced with DefaultWeights.
func NewGenerator(weights Weights, logger *slog.Logger) *Generator {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{weights: weights, logger: logger}
}

// Generate runs the rule cascade.
//
// # Inputs
//
//	analysis - The query's complexity analysis.
//	prof - The user's context profile.
//	capabilities - Registry snapshot keyed by agent id.
//
// # Outputs
//
//	RoutingStrategy - The candidate strategy.
//	[]string - Human-readable justifications, in rule order.
func (g *Generator) Generate(analysis complexity.Analysis, prof profile.UserContextProfile, capabilities map[string]registry.AgentCapability) (RoutingStrategy, []string) {
	var reasons []string

	primary, why := g.selectPrimary(analysis, prof, capabilities)
	reasons = append(reasons, why)

	strat := RoutingStrategy{
		PrimaryAgent:  primary,
		Collaboration: CollabNone,
	}

	dims := analysis.Dimensions
	tier := analysis.OverallComplexity
	if dims.Collaborative > 0.6 || tier == complexity.TierComplex {
		strat.Collaboration = CollabReview
		reasons = append(reasons, fmt.Sprintf("collaborative score %.2f / tier %s warrants a review pass", dims.Collaborative, tier))
	}
	if tier == complexity.TierExpert || dims.Collaborative > 0.8 {
		strat.Collaboration = CollabFull
		reasons = append(reasons, "expert-tier query escalated to full collaboration")
	}

	if strat.Collaboration != CollabNone {
		strat.SupportingAgents = g.complementAgents(strat.PrimaryAgent, dims, prof, capabilities)
		if strat.Collaboration == CollabFull && len(strat.SupportingAgents) < 2 {
			strat.SupportingAgents = padSupporting(strat.PrimaryAgent, strat.SupportingAgents, capabilities, 2)
		}
		if len(strat.SupportingAgents) > 0 {
			reasons = append(reasons, "supporting agents: "+strings.Join(strat.SupportingAgents, ", "))
		}
	}

	strat = g.Finalize(strat, analysis, capabilities)
	return strat, reasons
}

// selectPrimary applies the primary-selection order: executive role or
// tag first, then procurement, risk, high analytical score, then the
// general default.
func (g *Generator) selectPrimary(analysis complexity.Analysis, prof profile.UserContextProfile, capabilities map[string]registry.AgentCapability) (string, string) {
	has := func(id string) bool {
		_, ok := capabilities[id]
		return ok
	}
	tagged := func(tag string) bool {
		for _, t := range analysis.RequiredSpecializations {
			if t == tag {
				return true
			}
		}
		return false
	}

	switch {
	case (strings.EqualFold(prof.Role, "executive") || tagged(complexity.TagExecutive)) && has(registry.AgentExecutiveAdvisor):
		return registry.AgentExecutiveAdvisor, "executive role/tag routes to the executive advisor"
	case tagged(complexity.TagProcurement) && has(registry.AgentProcurementSpecialist):
		return registry.AgentProcurementSpecialist, "procurement specialization detected"
	case tagged(complexity.TagRisk) && has(registry.AgentRiskAnalyst):
		return registry.AgentRiskAnalyst, "risk specialization detected"
	case analysis.Dimensions.Analytical > 0.7 && has(registry.AgentDataScientist):
		return registry.AgentDataScientist, fmt.Sprintf("high analytical score %.2f routes to the data scientist", analysis.Dimensions.Analytical)
	case has(registry.AgentGeneralAnalyst):
		return registry.AgentGeneralAnalyst, "no specialization matched, using the general analyst"
	default:
		// Degenerate registry: pick any agent deterministically.
		ids := sortedIDs(capabilities)
		if len(ids) == 0 {
			return registry.AgentGeneralAnalyst, "registry empty, defaulting to the general analyst"
		}
		return ids[0], "no specialization matched, using first registered agent"
	}
}

// complementAgents picks supporting agents whose domain complements the
// primary: technical work pulls in the risk analyst, analytical work
// the data scientist, executive users the executive advisor.
func (g *Generator) complementAgents(primary string, dims complexity.Dimensions, prof profile.UserContextProfile, capabilities map[string]registry.AgentCapability) []string {
	var supporting []string
	add := func(id string) {
		if id == primary {
			return
		}
		if _, ok := capabilities[id]; !ok {
			return
		}
		for _, existing := range supporting {
			if existing == id {
				return
			}
		}
		supporting = append(supporting, id)
	}

	if dims.Technical > 0.7 {
		add(registry.AgentRiskAnalyst)
	}
	if dims.Analytical > 0.6 {
		add(registry.AgentDataScientist)
	}
	if strings.EqualFold(prof.Role, "executive") {
		add(registry.AgentExecutiveAdvisor)
	}
	return supporting
}

// padSupporting fills the supporting list up to min agents, preferring
// higher historical success rates.
func padSupporting(primary string, supporting []string, capabilities map[string]registry.AgentCapability, min int) []string {
	in := func(id string) bool {
		if id == primary {
			return true
		}
		for _, existing := range supporting {
			if existing == id {
				return true
			}
		}
		return false
	}

	candidates := make([]string, 0, len(capabilities))
	for id := range capabilities {
		if !in(id) {
			candidates = append(candidates, id)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		si, sj := capabilities[candidates[i]].Performance.SuccessRate, capabilities[candidates[j]].Performance.SuccessRate
		if si != sj {
			return si > sj
		}
		return candidates[i] < candidates[j]
	})

	for _, id := range candidates {
		if len(supporting) >= min {
			break
		}
		supporting = append(supporting, id)
	}
	return supporting
}

// Finalize computes expected confidence, the time estimate, and the
// fallback list from the strategy's shape. It is re-run after any
// adjustment so the derived fields always match the final shape.
func (g *Generator) Finalize(strat RoutingStrategy, analysis complexity.Analysis, capabilities map[string]registry.AgentCapability) RoutingStrategy {
	primary, ok := capabilities[strat.PrimaryAgent]

	confidence := 0.7
	if ok {
		confidence = primary.Accuracy
		if primary.Tier.Ordinal() >= analysis.OverallComplexity.Ordinal() {
			confidence += g.weights.SuitabilityBonus
		}
	}
	confidence += g.weights.SupportingAgentBonus * float64(len(strat.SupportingAgents))
	strat.ExpectedConfidence = g.weights.clampConfidence(confidence)

	estimate := analysis.EstimatedTime
	switch strat.Collaboration {
	case CollabReview:
		estimate = scaleDuration(estimate, g.weights.ReviewTimeFactor)
	case CollabFull:
		estimate = scaleDuration(estimate, g.weights.FullCollabTimeFactor)
	}
	estimate += g.weights.SupportingOverhead * time.Duration(len(strat.SupportingAgents))
	if estimate < g.weights.MinimumTime {
		estimate = g.weights.MinimumTime
	}
	strat.EstimatedTime = estimate

	strat.FallbackAgents = fallbackList(strat, capabilities, 2)
	return strat
}

// fallbackList ranks the agents not already in the strategy by success
// rate and keeps the top n.
func fallbackList(strat RoutingStrategy, capabilities map[string]registry.AgentCapability, n int) []string {
	used := map[string]bool{strat.PrimaryAgent: true}
	for _, id := range strat.SupportingAgents {
		used[id] = true
	}

	remaining := make([]string, 0, len(capabilities))
	for id := range capabilities {
		if !used[id] {
			remaining = append(remaining, id)
		}
	}
	sort.Slice(remaining, func(i, j int) bool {
		si, sj := capabilities[remaining[i]].Performance.SuccessRate, capabilities[remaining[j]].Performance.SuccessRate
		if si != sj {
			return si > sj
		}
		return remaining[i] < remaining[j]
	})
	if len(remaining) > n {
		remaining = remaining[:n]
	}
	return remaining
}

func scaleDuration(d time.Duration, factor float64) time.Duration {
	return time.Duration(float64(d) * factor)
}

func sortedIDs(capabilities map[string]registry.AgentCapability) []string {
	ids := make([]string, 0, len(capabilities))
	for id := range capabilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
