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
	"github.com/AleutianAI/AleutianInsight/services/router/registry"
)

// =============================================================================
// Alternative Strategies
// =============================================================================

// specialistTypes are the non-general agents the full-collaboration
// alternative draws from.
var specialistTypes = []string{
	registry.AgentProcurementSpecialist,
	registry.AgentRiskAnalyst,
	registry.AgentDataScientist,
	registry.AgentExecutiveAdvisor,
}

// Alternatives produces up to three informational variants of the
// chosen strategy. Callers may retry with one when the primary strategy
// fails; nothing here is tried automatically.
func (o *Optimizer) Alternatives(chosen RoutingStrategy, capabilities map[string]registry.AgentCapability) []RoutingStrategy {
	var alts []RoutingStrategy

	// Single-agent variant, only when the chosen strategy collaborates.
	if chosen.Collaboration != CollabNone {
		single := chosen
		single.SupportingAgents = nil
		single.Collaboration = CollabNone
		single.ExpectedConfidence = o.weights.clampConfidence(chosen.ExpectedConfidence * o.weights.SingleConfidenceFactor)
		single.EstimatedTime = scaleDuration(chosen.EstimatedTime, o.weights.SingleTimeFactor)
		alts = append(alts, single)
	}

	// Full-collaboration variant with the non-primary specialist types.
	if chosen.Collaboration != CollabFull {
		full := chosen
		full.Collaboration = CollabFull
		full.SupportingAgents = nil
		for _, id := range specialistTypes {
			if id == chosen.PrimaryAgent {
				continue
			}
			if _, ok := capabilities[id]; !ok {
				continue
			}
			full.SupportingAgents = append(full.SupportingAgents, id)
			if len(full.SupportingAgents) == 3 {
				break
			}
		}
		full.ExpectedConfidence = o.weights.clampConfidence(chosen.ExpectedConfidence * o.weights.FullConfidenceFactor)
		full.EstimatedTime = scaleDuration(chosen.EstimatedTime, o.weights.FullTimeFactor)
		alts = append(alts, full)
	}

	// Different-primary variant using the first fallback agent.
	if len(chosen.FallbackAgents) > 0 {
		diff := chosen
		diff.PrimaryAgent = chosen.FallbackAgents[0]
		diff.SupportingAgents = remove(append([]string(nil), chosen.SupportingAgents...), diff.PrimaryAgent)
		diff.FallbackAgents = append([]string{chosen.PrimaryAgent}, chosen.FallbackAgents[1:]...)
		diff.ExpectedConfidence = o.weights.clampConfidence(chosen.ExpectedConfidence * o.weights.DiffConfidenceFactor)
		diff.EstimatedTime = scaleDuration(chosen.EstimatedTime, o.weights.DiffTimeFactor)
		alts = append(alts, diff)
	}

	return alts
}
