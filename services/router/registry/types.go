// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry tracks the specialist agents available for routing,
// their capabilities, and their live load and performance figures.
package registry

import (
	"time"

	"github.com/AleutianAI/AleutianInsight/services/router/complexity"
)

// =============================================================================
// Capability Records
// =============================================================================

// Well-known agent ids. The registry can carry others loaded from
// configuration; these are the defaults the routing rules reference.
const (
	AgentProcurementSpecialist = "procurement_specialist"
	AgentRiskAnalyst           = "risk_analyst"
	AgentDataScientist         = "data_scientist"
	AgentExecutiveAdvisor      = "executive_advisor"
	AgentGeneralAnalyst        = "general_analyst"
)

// PerformanceStats are the live, periodically refreshed figures for an
// agent. They are never rolled back.
type PerformanceStats struct {
	AvgResponseTime  time.Duration `json:"avg_response_time" yaml:"avg_response_time"`
	SuccessRate      float64       `json:"success_rate" yaml:"success_rate" validate:"gte=0,lte=1"`
	UserSatisfaction float64       `json:"user_satisfaction" yaml:"user_satisfaction" validate:"gte=0,lte=1"`
}

// AgentCapability is one specialist agent's capability record.
type AgentCapability struct {
	AgentID               string           `json:"agent_id" yaml:"agent_id" validate:"required"`
	Name                  string           `json:"name" yaml:"name"`
	Tier                  complexity.Tier  `json:"tier" yaml:"tier" validate:"required,oneof=simple moderate complex expert"`
	Domains               []string         `json:"domains" yaml:"domains"`
	ProcessingSpeed       float64          `json:"processing_speed" yaml:"processing_speed" validate:"gte=0,lte=1"`
	Accuracy              float64          `json:"accuracy" yaml:"accuracy" validate:"gte=0,lte=1"`
	CollaborationAffinity float64          `json:"collaboration_affinity" yaml:"collaboration_affinity" validate:"gte=0,lte=1"`
	CurrentLoad           float64          `json:"current_load" yaml:"current_load" validate:"gte=0,lte=1"`
	Performance           PerformanceStats `json:"performance" yaml:"performance"`
}

// DefaultCapabilities is the fixed initial agent set used when no
// configuration file is supplied.
func DefaultCapabilities() []AgentCapability {
	return []AgentCapability{
		{
			AgentID:               AgentProcurementSpecialist,
			Name:                  "Procurement Specialist",
			Tier:                  complexity.TierComplex,
			Domains:               []string{complexity.TagProcurement},
			ProcessingSpeed:       0.7,
			Accuracy:              0.88,
			CollaborationAffinity: 0.6,
			CurrentLoad:           0.2,
			Performance: PerformanceStats{
				AvgResponseTime:  8 * time.Second,
				SuccessRate:      0.9,
				UserSatisfaction: 0.85,
			},
		},
		{
			AgentID:               AgentRiskAnalyst,
			Name:                  "Risk Analyst",
			Tier:                  complexity.TierComplex,
			Domains:               []string{complexity.TagRisk},
			ProcessingSpeed:       0.6,
			Accuracy:              0.86,
			CollaborationAffinity: 0.7,
			CurrentLoad:           0.2,
			Performance: PerformanceStats{
				AvgResponseTime:  10 * time.Second,
				SuccessRate:      0.87,
				UserSatisfaction: 0.82,
			},
		},
		{
			AgentID:               AgentDataScientist,
			Name:                  "Data Scientist",
			Tier:                  complexity.TierExpert,
			Domains:               []string{complexity.TagDataScience},
			ProcessingSpeed:       0.5,
			Accuracy:              0.9,
			CollaborationAffinity: 0.8,
			CurrentLoad:           0.3,
			Performance: PerformanceStats{
				AvgResponseTime:  15 * time.Second,
				SuccessRate:      0.88,
				UserSatisfaction: 0.8,
			},
		},
		{
			AgentID:               AgentExecutiveAdvisor,
			Name:                  "Executive Advisor",
			Tier:                  complexity.TierExpert,
			Domains:               []string{complexity.TagExecutive},
			ProcessingSpeed:       0.6,
			Accuracy:              0.85,
			CollaborationAffinity: 0.9,
			CurrentLoad:           0.2,
			Performance: PerformanceStats{
				AvgResponseTime:  12 * time.Second,
				SuccessRate:      0.86,
				UserSatisfaction: 0.9,
			},
		},
		{
			AgentID:               AgentGeneralAnalyst,
			Name:                  "General Analyst",
			Tier:                  complexity.TierModerate,
			Domains:               []string{"general"},
			ProcessingSpeed:       0.9,
			Accuracy:              0.8,
			CollaborationAffinity: 0.5,
			CurrentLoad:           0.4,
			Performance: PerformanceStats{
				AvgResponseTime:  5 * time.Second,
				SuccessRate:      0.84,
				UserSatisfaction: 0.78,
			},
		},
	}
}
