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

	"github.com/AleutianAI/AleutianInsight/services/memory"
	"github.com/AleutianAI/AleutianInsight/services/router/datatypes"
	"github.com/gin-gonic/gin"
)

// HandleMemoryContext returns the aggregated memory context used to
// shape routing for a user.
func HandleMemoryContext(mem *memory.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if userID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}
		query := c.Query("query")

		memCtx := mem.ComprehensiveContext(c.Request.Context(), userID, query)
		c.JSON(http.StatusOK, memCtx)
	}
}

// HandleStoreInteraction persists a completed interaction's outcome
// into semantic and procedural memory.
func HandleStoreInteraction(mem *memory.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.InteractionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		mem.StoreInteractionResults(c.Request.Context(),
			req.UserID, req.ConversationID, req.Query, req.Response, req.Success, req.Insights)
		c.JSON(http.StatusOK, gin.H{"status": "stored"})
	}
}

// HandleRecordEpisode checkpoints a conversation episode.
func HandleRecordEpisode(mem *memory.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var episode memory.ConversationEpisode
		if err := c.ShouldBindJSON(&episode); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := mem.Episodes().Record(c.Request.Context(), episode); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "recorded"})
	}
}
