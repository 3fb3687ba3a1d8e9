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

	"github.com/AleutianAI/AleutianInsight/services/cache"
	"github.com/AleutianAI/AleutianInsight/services/router/datatypes"
	"github.com/gin-gonic/gin"
)

// HandleInvalidateReports drops cached reports that depend on a
// changed entity and returns how many entries were removed.
func HandleInvalidateReports(svc *cache.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.InvalidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		removed := svc.InvalidateReportCache(c.Request.Context(), req.ChangedEntity)
		slog.Info("report cache invalidated",
			slog.String("changed_entity", req.ChangedEntity),
			slog.Int("removed", removed),
		)
		c.JSON(http.StatusOK, gin.H{"invalidated": removed})
	}
}

// HandleCacheStatus reports whether the durable tier is reachable and
// the size of the in-process tier.
func HandleCacheStatus(svc *cache.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"degraded":      svc.Degraded(),
			"local_entries": svc.LocalLen(),
		})
	}
}
