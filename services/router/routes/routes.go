// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes wires the routing API onto a gin engine.
package routes

import (
	"github.com/AleutianAI/AleutianInsight/services/agents"
	"github.com/AleutianAI/AleutianInsight/services/router/engine"
	"github.com/AleutianAI/AleutianInsight/services/router/handlers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries everything the API surface needs.
type Deps struct {
	Engine        *engine.Engine
	AgentsClient  *agents.Client
	EnableMetrics bool
}

// SetupRoutes registers all HTTP and websocket endpoints.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	if deps.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/v1")
	{
		routeGroup := v1.Group("/route")
		{
			routeGroup.POST("", handlers.HandleRouteQuery(deps.Engine))
			routeGroup.POST("/outcome", handlers.HandleOutcome(deps.Engine))
			routeGroup.GET("/ws", handlers.HandleRouteWebSocket(deps.Engine))
		}

		memoryGroup := v1.Group("/memory")
		{
			memoryGroup.GET("/:userId/context", handlers.HandleMemoryContext(deps.Engine.Memory()))
			memoryGroup.POST("/interactions", handlers.HandleStoreInteraction(deps.Engine.Memory()))
			memoryGroup.POST("/episodes", handlers.HandleRecordEpisode(deps.Engine.Memory()))
		}

		cacheGroup := v1.Group("/cache")
		{
			cacheGroup.POST("/invalidate", handlers.HandleInvalidateReports(deps.Engine.Cache()))
			cacheGroup.GET("/status", handlers.HandleCacheStatus(deps.Engine.Cache()))
		}

		agentGroup := v1.Group("/agents")
		{
			agentGroup.GET("", handlers.HandleListAgents(deps.Engine.Registry()))
			agentGroup.POST("/:agentId/load", handlers.HandleAgentLoad(deps.Engine.Registry()))
		}

		if deps.AgentsClient != nil {
			v1.POST("/analyze", handlers.HandleAnalyze(deps.AgentsClient))
		}
	}
}
