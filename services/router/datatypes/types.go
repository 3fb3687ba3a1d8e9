// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the wire-level request and response shapes of
// the routing API.
package datatypes

import (
	"github.com/AleutianAI/AleutianInsight/services/router/profile"
)

// RouteRequest is the body of POST /v1/route and the per-message shape
// on the routing websocket.
type RouteRequest struct {
	Query          string                 `json:"query" binding:"required"`
	UserID         string                 `json:"user_id" binding:"required"`
	Role           string                 `json:"role,omitempty"`
	DataSourceHint string                 `json:"data_source_hint,omitempty"`
	Session        profile.SessionContext `json:"session,omitempty"`
}

// OutcomeRequest reports how a routed interaction went.
type OutcomeRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	Query        string `json:"query" binding:"required"`
	PrimaryAgent string `json:"primary_agent,omitempty"`
	Success      bool   `json:"success"`
}

// InteractionRequest stores a completed interaction in memory.
type InteractionRequest struct {
	UserID         string   `json:"user_id" binding:"required"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Query          string   `json:"query" binding:"required"`
	Response       string   `json:"response,omitempty"`
	Success        bool     `json:"success"`
	Insights       []string `json:"insights,omitempty"`
}

// InvalidateRequest names the entity whose dependent reports must be
// dropped from the cache.
type InvalidateRequest struct {
	ChangedEntity string `json:"changed_entity" binding:"required"`
}

// LoadReport updates one agent's live load figures.
type LoadReport struct {
	Load          float64  `json:"load" binding:"gte=0,lte=1"`
	SuccessRate   *float64 `json:"success_rate,omitempty"`
	AvgResponseMs *int64   `json:"avg_response_ms,omitempty"`
	Satisfaction  *float64 `json:"satisfaction,omitempty"`
}

// AnalysisRequest asks a specialist agent for an analysis.
type AnalysisRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
	Query   string `json:"query" binding:"required"`
	Persona string `json:"persona,omitempty"`
}
