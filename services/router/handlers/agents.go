// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/router/datatypes"
	"github.com/AleutianAI/AleutianInsight/services/router/registry"
	"github.com/gin-gonic/gin"
)

// HandleListAgents returns the current capability snapshot.
func HandleListAgents(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"agents": reg.Snapshot(c.Request.Context())})
	}
}

// HandleAgentLoad accepts a live load report from an agent worker.
func HandleAgentLoad(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		agentID := c.Param("agentId")
		if agentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "agentId is required"})
			return
		}

		var req datatypes.LoadReport
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		current := reg.Snapshot(c.Request.Context())[agentID]
		perf := performanceFromReport(req, current.Performance)
		reg.RecordLoad(c.Request.Context(), agentID, req.Load, perf)
		c.JSON(http.StatusOK, gin.H{"status": "recorded"})
	}
}

// performanceFromReport overlays the optional fields of a load report
// on the agent's current stats, or returns nil when none were sent.
func performanceFromReport(req datatypes.LoadReport, base registry.PerformanceStats) *registry.PerformanceStats {
	if req.SuccessRate == nil && req.AvgResponseMs == nil && req.Satisfaction == nil {
		return nil
	}
	perf := base
	if req.SuccessRate != nil {
		perf.SuccessRate = *req.SuccessRate
	}
	if req.AvgResponseMs != nil {
		perf.AvgResponseTime = time.Duration(*req.AvgResponseMs) * time.Millisecond
	}
	if req.Satisfaction != nil {
		perf.UserSatisfaction = *req.Satisfaction
	}
	return &perf
}
