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
	"log/slog"
	"net/http"

	"github.com/AleutianAI/AleutianInsight/services/agents"
	"github.com/AleutianAI/AleutianInsight/services/router/datatypes"
	"github.com/gin-gonic/gin"
)

// HandleAnalyze forwards a query to a specialist agent and returns the
// generated analysis.
func HandleAnalyze(client *agents.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.AnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		analysis, err := client.GenerateAnalysis(c.Request.Context(), req.AgentID, req.Persona, req.Query)
		if err != nil {
			slog.Error("analysis generation failed",
				slog.String("agent_id", req.AgentID),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis generation failed"})
			return
		}
		c.JSON(http.StatusOK, analysis)
	}
}
