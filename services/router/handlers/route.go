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

	"github.com/AleutianAI/AleutianInsight/services/router/datatypes"
	"github.com/AleutianAI/AleutianInsight/services/router/engine"
	"github.com/gin-gonic/gin"
)

// HandleRouteQuery decides which agents should handle a query.
func HandleRouteQuery(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RouteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		decision := eng.RouteQuery(c.Request.Context(), engine.Request{
			Query:          req.Query,
			UserID:         req.UserID,
			Role:           req.Role,
			DataSourceHint: req.DataSourceHint,
			Session:        req.Session,
		})

		slog.Info("Routed query",
			"user_id", req.UserID,
			"primary", decision.Strategy.PrimaryAgent,
			"collaboration", decision.Strategy.Collaboration,
			"fallback", decision.Fallback,
		)
		c.JSON(http.StatusOK, decision)
	}
}

// HandleOutcome records the result of a routed interaction so future
// routing learns from it.
func HandleOutcome(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.OutcomeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := eng.ReportOutcome(c.Request.Context(), req.UserID, req.Query, req.PrimaryAgent, req.Success); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "recorded"})
	}
}
