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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/cache"
	"github.com/AleutianAI/AleutianInsight/services/router/engine"
	"github.com/AleutianAI/AleutianInsight/services/router/registry"
	"github.com/AleutianAI/AleutianInsight/services/router/strategy"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	svc := cache.NewService(cache.ServiceConfig{
		MaxLocalEntries:     5000,
		MaintenanceInterval: time.Hour,
	})
	t.Cleanup(func() { _ = svc.Close() })

	eng, err := engine.New(engine.Config{
		Registry: registry.New(registry.Config{Cache: svc}),
		Cache:    svc,
	})
	require.NoError(t, err)
	return eng
}

func postJSON(t *testing.T, handler gin.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST(path, handler)

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleRouteQuery(t *testing.T) {
	eng := newTestEngine(t)

	rec := postJSON(t, HandleRouteQuery(eng), "/v1/route", map[string]any{
		"query":   "Show me top 5 suppliers by spend",
		"user_id": "u1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var decision strategy.RoutingDecision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, registry.AgentProcurementSpecialist, decision.Strategy.PrimaryAgent)
	assert.False(t, decision.Fallback)
	assert.GreaterOrEqual(t, decision.Strategy.ExpectedConfidence, 0.7)
}

func TestHandleRouteQuery_MissingFields(t *testing.T) {
	eng := newTestEngine(t)

	rec := postJSON(t, HandleRouteQuery(eng), "/v1/route", map[string]any{
		"query": "no user attached",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleOutcome(t *testing.T) {
	eng := newTestEngine(t)

	rec := postJSON(t, HandleOutcome(eng), "/v1/route/outcome", map[string]any{
		"user_id":       "u1",
		"query":         "supplier risk exposure report",
		"primary_agent": registry.AgentRiskAnalyst,
		"success":       true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	patterns := eng.Memory().Patterns().Patterns(context.Background(), "u1")
	require.Len(t, patterns, 1)
	assert.Equal(t, "route:"+registry.AgentRiskAnalyst, patterns[0].Action)
}

func TestHandleStoreInteraction_AndContext(t *testing.T) {
	eng := newTestEngine(t)

	rec := postJSON(t, HandleStoreInteraction(eng.Memory()), "/v1/memory/interactions", map[string]any{
		"user_id": "u2",
		"query":   "monthly supplier spend by category",
		"success": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	router := gin.New()
	router.GET("/v1/memory/:userId/context", HandleMemoryContext(eng.Memory()))
	req := httptest.NewRequest(http.MethodGet, "/v1/memory/u2/context?query=supplier+spend", nil)
	get := httptest.NewRecorder()
	router.ServeHTTP(get, req)
	require.Equal(t, http.StatusOK, get.Code)

	var memCtx map[string]any
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &memCtx))
	assert.Contains(t, memCtx, "relevant_patterns")
	assert.Contains(t, memCtx, "summary")
}

func TestHandleInvalidateReports(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	eng.Cache().CacheReport(ctx, "q3-spend", []string{"supplier_master"}, map[string]string{"title": "Q3 Spend"})
	eng.Cache().CacheReport(ctx, "headcount", []string{"hr_data"}, map[string]string{"title": "Headcount"})

	rec := postJSON(t, HandleInvalidateReports(eng.Cache()), "/v1/cache/invalidate", map[string]any{
		"changed_entity": "supplier_master",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp["invalidated"])

	var out map[string]string
	assert.False(t, eng.Cache().GetReport(ctx, "q3-spend", &out))
	assert.True(t, eng.Cache().GetReport(ctx, "headcount", &out))
}

func TestHandleCacheStatus(t *testing.T) {
	eng := newTestEngine(t)

	router := gin.New()
	router.GET("/v1/cache/status", HandleCacheStatus(eng.Cache()))
	req := httptest.NewRequest(http.MethodGet, "/v1/cache/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["degraded"])
}

func TestHandleAgentLoad(t *testing.T) {
	eng := newTestEngine(t)

	router := gin.New()
	router.POST("/v1/agents/:agentId/load", HandleAgentLoad(eng.Registry()))

	raw, err := json.Marshal(map[string]any{"load": 0.65, "success_rate": 0.91})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/agents/"+registry.AgentDataScientist+"/load", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	snapshot := eng.Registry().Snapshot(context.Background())
	agent := snapshot[registry.AgentDataScientist]
	assert.InDelta(t, 0.65, agent.CurrentLoad, 1e-9)
	assert.InDelta(t, 0.91, agent.Performance.SuccessRate, 1e-9)
	// Fields not sent keep their previous values.
	assert.Greater(t, agent.Performance.UserSatisfaction, 0.0)
}

func TestHandleAgentLoad_RejectsOutOfRange(t *testing.T) {
	eng := newTestEngine(t)

	router := gin.New()
	router.POST("/v1/agents/:agentId/load", HandleAgentLoad(eng.Registry()))

	req := httptest.NewRequest(http.MethodPost, "/v1/agents/"+registry.AgentRiskAnalyst+"/load",
		bytes.NewReader([]byte(`{"load": 1.7}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListAgents(t *testing.T) {
	eng := newTestEngine(t)

	router := gin.New()
	router.GET("/v1/agents", HandleListAgents(eng.Registry()))
	req := httptest.NewRequest(http.MethodGet, "/v1/agents", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Agents map[string]registry.AgentCapability `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Agents, registry.AgentGeneralAnalyst)
}

func TestHealthCheck(t *testing.T) {
	router := gin.New()
	router.GET("/health", HealthCheck)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
