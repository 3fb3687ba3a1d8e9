// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/cache"
	"github.com/AleutianAI/AleutianInsight/services/memory"
	"github.com/AleutianAI/AleutianInsight/services/router/complexity"
	"github.com/AleutianAI/AleutianInsight/services/router/registry"
	"github.com/AleutianAI/AleutianInsight/services/router/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	svc := cache.NewService(cache.ServiceConfig{
		MaxLocalEntries:     5000,
		MaintenanceInterval: time.Hour,
	})
	t.Cleanup(func() { _ = svc.Close() })

	eng, err := New(Config{
		Registry: registry.New(registry.Config{Cache: svc}),
		Cache:    svc,
	})
	require.NoError(t, err)
	return eng
}

func TestRouteQuery_ProcurementScenario(t *testing.T) {
	eng := newEngine(t)

	decision := eng.RouteQuery(context.Background(), Request{
		Query:  "Show me top 5 suppliers by spend",
		UserID: "u1",
		Role:   "analyst",
	})

	assert.False(t, decision.Fallback)
	assert.Equal(t, registry.AgentProcurementSpecialist, decision.Strategy.PrimaryAgent)
	assert.Equal(t, strategy.CollabNone, decision.Strategy.Collaboration)
	assert.GreaterOrEqual(t, decision.Strategy.ExpectedConfidence, 0.7)
	assert.NotEmpty(t, decision.Reasoning)
	assert.NotEmpty(t, decision.Alternatives)
	eng.WaitForPersistence()
}

func TestRouteQuery_ExecutiveRoleOverride(t *testing.T) {
	eng := newEngine(t)

	decision := eng.RouteQuery(context.Background(), Request{
		Query:  "Show me top 5 suppliers by spend",
		UserID: "u2",
		Role:   "executive",
	})

	assert.Equal(t, registry.AgentExecutiveAdvisor, decision.Strategy.PrimaryAgent)
	eng.WaitForPersistence()
}

func TestRouteQuery_Idempotent(t *testing.T) {
	eng := newEngine(t)
	req := Request{Query: "Compare supplier spend against budget", UserID: "u3", Role: "analyst"}

	first := eng.RouteQuery(context.Background(), req)
	eng.WaitForPersistence()
	second := eng.RouteQuery(context.Background(), req)
	eng.WaitForPersistence()

	assert.Equal(t, first.Strategy.PrimaryAgent, second.Strategy.PrimaryAgent)
	assert.Equal(t, first.Strategy.Collaboration, second.Strategy.Collaboration)
}

func TestRouteQuery_SecondCallServedFromCache(t *testing.T) {
	eng := newEngine(t)
	req := Request{Query: "weekly invoice volume", UserID: "u4"}

	first := eng.RouteQuery(context.Background(), req)
	eng.WaitForPersistence()

	var cached strategy.RoutingDecision
	require.True(t, eng.Cache().GetRoute(context.Background(), req.Query, req.UserID, &cached))
	assert.Equal(t, first.Strategy.PrimaryAgent, cached.Strategy.PrimaryAgent)
}

func TestRouteQuery_PipelineFailureReturnsFallbackDecision(t *testing.T) {
	eng := newEngine(t)
	// Force a panic inside routeOnce.
	eng.generator = nil

	decision := eng.RouteQuery(context.Background(), Request{Query: "anything", UserID: "u5"})

	assert.True(t, decision.Fallback)
	assert.Equal(t, registry.AgentGeneralAnalyst, decision.Strategy.PrimaryAgent)
	assert.Equal(t, strategy.CollabNone, decision.Strategy.Collaboration)
	assert.InDelta(t, 0.7, decision.Strategy.ExpectedConfidence, 1e-9)
	eng.WaitForPersistence()
}

func TestRouteQuery_FallbackDecisionNotCached(t *testing.T) {
	eng := newEngine(t)
	eng.generator = nil

	req := Request{Query: "anything", UserID: "u5"}
	decision := eng.RouteQuery(context.Background(), req)
	require.True(t, decision.Fallback)
	eng.WaitForPersistence()

	var cached strategy.RoutingDecision
	assert.False(t, eng.Cache().GetRoute(context.Background(), req.Query, req.UserID, &cached),
		"a transient pipeline failure must not be replayed from the route cache")
}

func TestRouteQuery_DegradedScorerStillRoutes(t *testing.T) {
	svc := cache.NewService(cache.ServiceConfig{
		MaxLocalEntries:     1000,
		MaintenanceInterval: time.Hour,
	})
	t.Cleanup(func() { _ = svc.Close() })

	analyzer := complexity.NewAnalyzer(complexity.AnalyzerConfig{
		Scorer: erroringScorer{},
	})
	eng, err := New(Config{
		Registry: registry.New(registry.Config{}),
		Cache:    svc,
		Analyzer: analyzer,
	})
	require.NoError(t, err)

	decision := eng.RouteQuery(context.Background(), Request{Query: "supplier overview", UserID: "u6"})

	assert.False(t, decision.Fallback, "scorer failure degrades inside the analyzer, not the pipeline")
	assert.Equal(t, registry.AgentProcurementSpecialist, decision.Strategy.PrimaryAgent)
	assert.Contains(t, decision.ContextFactors, "complexity scoring degraded to fixed fallback")
	eng.WaitForPersistence()
}

type erroringScorer struct{}

func (erroringScorer) Score(context.Context, string, string) (complexity.Dimensions, float64, error) {
	return complexity.Dimensions{}, 0, errors.New("scorer offline")
}
func (erroringScorer) Name() string { return "erroring" }

func TestReportOutcome_UpdatesProceduralMemory(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.ReportOutcome(ctx, "u7", "top suppliers by spend", registry.AgentProcurementSpecialist, true))
	require.NoError(t, eng.ReportOutcome(ctx, "u7", "supplier ranking", "", false))

	patterns := eng.Memory().Patterns().Patterns(ctx, "u7")
	require.Len(t, patterns, 1)
	assert.Equal(t, memory.CategorySupplier, patterns[0].Label)
	assert.Equal(t, 2, patterns[0].UsageCount)
	assert.InDelta(t, 0.5, patterns[0].SuccessRate, 1e-9)
	assert.Equal(t, "route:"+registry.AgentProcurementSpecialist, patterns[0].Action)
}

func TestReportOutcome_RequiresUser(t *testing.T) {
	eng := newEngine(t)
	assert.ErrorIs(t, eng.ReportOutcome(context.Background(), "", "q", "", true), memory.ErrEmptyUserID)
}

func TestRouteQuery_PersistsEpisode(t *testing.T) {
	eng := newEngine(t)

	eng.RouteQuery(context.Background(), Request{Query: "supplier spend trend", UserID: "u8"})
	eng.WaitForPersistence()

	episodes := eng.Memory().Episodes().Recent(context.Background(), "u8", 5)
	require.Len(t, episodes, 1)
	assert.Contains(t, episodes[0].Summary, "routed to")
}

func TestRouteQueryStream_EmitsPhasesInOrder(t *testing.T) {
	eng := newEngine(t)

	var phases []string
	decision := eng.RouteQueryStream(context.Background(), Request{
		Query:  "Show me top 5 suppliers by spend",
		UserID: "stream-user",
	}, func(phase string, payload any) {
		phases = append(phases, phase)
	})

	assert.Equal(t, []string{"complexity", "profile", "strategy", "optimized", "final"}, phases)
	assert.Equal(t, registry.AgentProcurementSpecialist, decision.Strategy.PrimaryAgent)
}

func TestRouteQueryStream_CacheHitEmitsOnlyFinal(t *testing.T) {
	eng := newEngine(t)
	req := Request{Query: "Show me top 5 suppliers by spend", UserID: "stream-user-2"}

	eng.RouteQuery(context.Background(), req)
	eng.WaitForPersistence()

	var phases []string
	eng.RouteQueryStream(context.Background(), req, func(phase string, payload any) {
		phases = append(phases, phase)
	})
	assert.Equal(t, []string{"final"}, phases)
}
