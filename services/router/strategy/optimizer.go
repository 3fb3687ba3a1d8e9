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

	"github.com/AleutianAI/AleutianInsight/services/router/complexity"
	"github.com/AleutianAI/AleutianInsight/services/router/profile"
	"github.com/AleutianAI/AleutianInsight/services/router/registry"
)

// =============================================================================
// Routing Optimizer
// =============================================================================

// Optimizer applies three independent adjustments to a generated
// strategy: load balancing, user agent preference, and expertise
// shaping. Adjustments run in that fixed order; each records a short
// description when it fires.
type Optimizer struct {
	weights   Weights
	generator *Generator
}

// NewOptimizer builds an Optimizer sharing the generator's weights so
// re-finalized strategies use the same arithmetic.
func NewOptimizer(generator *Generator) *Optimizer {
	return &Optimizer{weights: generator.weights, generator: generator}
}

// Optimize adjusts the strategy and returns it with the list of
// optimizations that were actually applied.
func (o *Optimizer) Optimize(strat RoutingStrategy, analysis complexity.Analysis, prof profile.UserContextProfile, capabilities map[string]registry.AgentCapability) (RoutingStrategy, []string) {
	var applied []string

	if desc, ok := o.balanceLoad(&strat, capabilities); ok {
		applied = append(applied, desc)
	}
	if desc, ok := o.applyPreference(&strat, analysis, prof, capabilities); ok {
		applied = append(applied, desc)
	}
	if desc, ok := o.shapeForExpertise(&strat, analysis, prof, capabilities); ok {
		applied = append(applied, desc)
	}

	if len(applied) > 0 {
		strat = o.generator.Finalize(strat, analysis, capabilities)
	}
	return strat, applied
}

// balanceLoad swaps an overloaded primary for its least-loaded fallback
// when that fallback has clear headroom.
func (o *Optimizer) balanceLoad(strat *RoutingStrategy, capabilities map[string]registry.AgentCapability) (string, bool) {
	primary, ok := capabilities[strat.PrimaryAgent]
	if !ok || primary.CurrentLoad <= o.weights.HighLoadThreshold {
		return "", false
	}

	best := ""
	bestLoad := 2.0
	for _, id := range strat.FallbackAgents {
		if capability, ok := capabilities[id]; ok && capability.CurrentLoad < bestLoad {
			best, bestLoad = id, capability.CurrentLoad
		}
	}
	if best == "" || bestLoad >= o.weights.LowLoadThreshold {
		return "", false
	}

	old := strat.PrimaryAgent
	strat.PrimaryAgent = best
	strat.SupportingAgents = remove(strat.SupportingAgents, best)
	return fmt.Sprintf("load balancing: swapped %s (load %.2f) for %s (load %.2f)", old, primary.CurrentLoad, best, bestLoad), true
}

// applyPreference promotes the user's top preferred agent to primary
// when it is suitable for the query's tier.
func (o *Optimizer) applyPreference(strat *RoutingStrategy, analysis complexity.Analysis, prof profile.UserContextProfile, capabilities map[string]registry.AgentCapability) (string, bool) {
	if len(prof.Performance.PreferredAgents) == 0 {
		return "", false
	}
	preferred := prof.Performance.PreferredAgents[0]
	if preferred == strat.PrimaryAgent {
		return "", false
	}
	capability, ok := capabilities[preferred]
	if !ok || capability.Tier.Ordinal() < analysis.OverallComplexity.Ordinal() {
		return "", false
	}

	strat.PrimaryAgent = preferred
	strat.SupportingAgents = remove(strat.SupportingAgents, preferred)
	return fmt.Sprintf("user preference: promoted %s to primary", preferred), true
}

// shapeForExpertise trims ceremony for experts on simple queries and
// adds guidance for beginners on complex ones.
func (o *Optimizer) shapeForExpertise(strat *RoutingStrategy, analysis complexity.Analysis, prof profile.UserContextProfile, capabilities map[string]registry.AgentCapability) (string, bool) {
	tier := analysis.OverallComplexity

	if prof.Expertise == profile.ExpertiseExpert && tier == complexity.TierSimple {
		if strat.Collaboration == CollabNone && len(strat.SupportingAgents) == 0 {
			return "", false
		}
		strat.Collaboration = CollabNone
		strat.SupportingAgents = nil
		return "expertise shaping: expert user on a simple query, collaboration stripped", true
	}

	if prof.Expertise == profile.ExpertiseBeginner && tier.Ordinal() >= complexity.TierComplex.Ordinal() {
		strat.Collaboration = CollabFull
		if strat.PrimaryAgent != registry.AgentExecutiveAdvisor {
			if _, ok := capabilities[registry.AgentExecutiveAdvisor]; ok && !contains(strat.SupportingAgents, registry.AgentExecutiveAdvisor) {
				strat.SupportingAgents = append(strat.SupportingAgents, registry.AgentExecutiveAdvisor)
			}
		}
		return "expertise shaping: beginner on a complex query, full collaboration with advisory framing", true
	}
	return "", false
}

func remove(ids []string, id string) []string {
	var out []string
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
