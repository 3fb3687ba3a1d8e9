// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine orchestrates one routing call end to end: complexity
// analysis and profile building run concurrently, the registry snapshot
// feeds the strategy generator, the optimizer and alternative generator
// shape the result, and the decision is cached and persisted to memory.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/cache"
	"github.com/AleutianAI/AleutianInsight/services/memory"
	"github.com/AleutianAI/AleutianInsight/services/router/complexity"
	"github.com/AleutianAI/AleutianInsight/services/router/profile"
	"github.com/AleutianAI/AleutianInsight/services/router/registry"
	"github.com/AleutianAI/AleutianInsight/services/router/strategy"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("insight.router.engine")

// =============================================================================
// Requests
// =============================================================================

// Request is one inbound routing call.
type Request struct {
	Query          string                 `json:"query"`
	UserID         string                 `json:"user_id"`
	Role           string                 `json:"role,omitempty"`
	DataSourceHint string                 `json:"data_source_hint,omitempty"`
	Session        profile.SessionContext `json:"session,omitempty"`
}

// =============================================================================
// Engine
// =============================================================================

// Engine wires the routing pipeline together.
//
// # Thread Safety
//
// Any number of RouteQuery calls may run concurrently; all shared state
// lives behind the cache service and registry, which guard themselves.
type Engine struct {
	analyzer  *complexity.Analyzer
	profiles  *profile.Builder
	registry  *registry.Registry
	generator *strategy.Generator
	optimizer *strategy.Optimizer
	cache     *cache.Service
	mem       *memory.Coordinator
	logger    *slog.Logger

	// persistWG lets tests wait for async memory writes.
	persistWG sync.WaitGroup
}

// Config configures an Engine. Registry and Cache are required; the
// rest default to standard implementations.
type Config struct {
	Analyzer  *complexity.Analyzer
	Profiles  *profile.Builder
	Registry  *registry.Registry
	Generator *strategy.Generator
	Optimizer *strategy.Optimizer
	Cache     *cache.Service
	Memory    *memory.Coordinator
	Logger    *slog.Logger
}

// New builds an Engine, filling config defaults.
func New(cfg Config) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("engine: registry is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("engine: cache service is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Analyzer == nil {
		cfg.Analyzer = complexity.NewAnalyzer(complexity.AnalyzerConfig{Logger: cfg.Logger})
	}
	if cfg.Memory == nil {
		cfg.Memory = memory.NewCoordinator(cfg.Cache, cfg.Logger)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = profile.NewBuilder(cfg.Memory, cfg.Logger)
	}
	if cfg.Generator == nil {
		cfg.Generator = strategy.NewGenerator(strategy.DefaultWeights(), cfg.Logger)
	}
	if cfg.Optimizer == nil {
		cfg.Optimizer = strategy.NewOptimizer(cfg.Generator)
	}
	return &Engine{
		analyzer:  cfg.Analyzer,
		profiles:  cfg.Profiles,
		registry:  cfg.Registry,
		generator: cfg.Generator,
		optimizer: cfg.Optimizer,
		cache:     cfg.Cache,
		mem:       cfg.Memory,
		logger:    cfg.Logger,
	}, nil
}

// Memory exposes the coordinator for handlers that record outcomes.
func (e *Engine) Memory() *memory.Coordinator { return e.mem }

// Cache exposes the cache service for admin handlers.
func (e *Engine) Cache() *cache.Service { return e.cache }

// Registry exposes the capability registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// RouteQuery decides how a query should be routed.
//
// # Description
//
// The caller always receives a usable decision: any failure inside the
// pipeline is replaced with the fixed fallback (general analyst, no
// collaboration, confidence 0.7). Identical inputs against unchanged
// registry and memory state produce the same primary agent and
// collaboration level; recent identical calls are served from the
// route cache.
func (e *Engine) RouteQuery(ctx context.Context, req Request) strategy.RoutingDecision {
	return e.route(ctx, req, nil)
}

// PhaseEmitter receives each intermediate pipeline result as it is
// produced. Phases, in order: "complexity", "profile", "strategy",
// "optimized", "final".
type PhaseEmitter func(phase string, payload any)

// RouteQueryStream routes like RouteQuery while emitting each pipeline
// phase through emit. The final decision is both emitted (phase
// "final") and returned. Cache hits emit only the final phase.
func (e *Engine) RouteQueryStream(ctx context.Context, req Request, emit PhaseEmitter) strategy.RoutingDecision {
	return e.route(ctx, req, emit)
}

func (e *Engine) route(ctx context.Context, req Request, emit PhaseEmitter) strategy.RoutingDecision {
	ctx, span := tracer.Start(ctx, "engine.RouteQuery")
	defer span.End()
	start := time.Now()

	if emit == nil {
		emit = func(string, any) {}
	}

	if cached, ok := e.cachedDecision(ctx, req); ok {
		recordDecision(cached.Strategy.PrimaryAgent, string(cached.Strategy.Collaboration), "cache_hit")
		emit("final", cached)
		return cached
	}

	decision, err := e.routeOnce(ctx, req, emit)
	if err != nil {
		e.logger.Error("routing pipeline failed, returning fallback decision",
			"user_id", req.UserID,
			"error", err,
		)
		decision = fallbackDecision(err)
	}

	span.SetAttributes(
		attribute.String("route.primary", decision.Strategy.PrimaryAgent),
		attribute.String("route.collaboration", string(decision.Strategy.Collaboration)),
		attribute.Bool("route.fallback", decision.Fallback),
	)
	outcome := "success"
	if decision.Fallback {
		outcome = "fallback"
	}
	recordDecision(decision.Strategy.PrimaryAgent, string(decision.Strategy.Collaboration), outcome)
	recordRouteLatency(time.Since(start).Seconds())
	recordConfidence(decision.Strategy.ExpectedConfidence)

	emit("final", decision)
	e.persistDecision(req, decision)
	return decision
}

// routeOnce runs the pipeline. Panics are converted to errors so the
// top-level fallback boundary in route always holds.
func (e *Engine) routeOnce(ctx context.Context, req Request, emit PhaseEmitter) (decision strategy.RoutingDecision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("routing panicked: %v", r)
		}
	}()

	// Analysis and profile have no data dependency on each other.
	var (
		analysis complexity.Analysis
		prof     profile.UserContextProfile
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		analysis = e.analyzer.Analyze(ctx, req.Query, req.DataSourceHint)
	}()
	go func() {
		defer wg.Done()
		prof = e.profiles.Build(ctx, req.UserID, req.Role, req.Session)
	}()
	wg.Wait()
	emit("complexity", analysis)
	emit("profile", prof)

	capabilities := e.registry.Snapshot(ctx)

	strat, reasons := e.generator.Generate(analysis, prof, capabilities)
	emit("strategy", strat)
	strat, applied := e.optimizer.Optimize(strat, analysis, prof, capabilities)
	emit("optimized", strat)
	alternatives := e.optimizer.Alternatives(strat, capabilities)

	decision = strategy.RoutingDecision{
		Strategy:             strat,
		Reasoning:            reasons,
		Alternatives:         alternatives,
		OptimizationsApplied: applied,
		ContextFactors: []string{
			fmt.Sprintf("complexity tier: %s", analysis.OverallComplexity),
			fmt.Sprintf("user expertise: %s", prof.Expertise),
			fmt.Sprintf("preferred depth: %s", prof.PreferredDepth),
		},
	}
	if analysis.Fallback {
		decision.ContextFactors = append(decision.ContextFactors, "complexity scoring degraded to fixed fallback")
	}
	return decision, nil
}

// cachedDecision serves recent identical calls from the route cache.
func (e *Engine) cachedDecision(ctx context.Context, req Request) (strategy.RoutingDecision, bool) {
	var decision strategy.RoutingDecision
	if !e.cache.GetRoute(ctx, req.Query, req.UserID, &decision) {
		return decision, false
	}
	return decision, true
}

// persistDecision caches the decision and asynchronously records an
// episodic trace of it. Failures are logged, never surfaced.
func (e *Engine) persistDecision(req Request, decision strategy.RoutingDecision) {
	e.persistWG.Add(1)
	go func() {
		defer e.persistWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Fallback decisions stay out of the route cache so a transient
		// pipeline failure is not replayed for the cache TTL.
		if decision.Fallback {
			return
		}
		e.cache.CacheRoute(ctx, req.Query, req.UserID, decision)
		if req.UserID == "" {
			return
		}
		episode := memory.ConversationEpisode{
			UserID:     req.UserID,
			Summary:    fmt.Sprintf("routed to %s (%s)", decision.Strategy.PrimaryAgent, decision.Strategy.Collaboration),
			Topics:     []string{memory.ClassifyQuery(req.Query)},
			Complexity: tierFromFactors(decision.ContextFactors),
		}
		if err := e.mem.Episodes().Record(ctx, episode); err != nil {
			e.logger.Warn("failed to persist routing episode", "user_id", req.UserID, "error", err)
		}
	}()
}

// ReportOutcome records how a routed interaction went, feeding the
// procedural success rates that shape future decisions.
func (e *Engine) ReportOutcome(ctx context.Context, userID, query, primaryAgent string, success bool) error {
	if userID == "" {
		return memory.ErrEmptyUserID
	}
	label := memory.ClassifyQuery(query)
	action := ""
	if primaryAgent != "" {
		action = "route:" + primaryAgent
	}
	_, err := e.mem.Patterns().RecordOutcome(ctx, userID, label, action, success)
	return err
}

// WaitForPersistence blocks until in-flight async writes finish.
// Intended for tests and shutdown.
func (e *Engine) WaitForPersistence() { e.persistWG.Wait() }

// fallbackDecision is the hard-coded decision returned when the
// pipeline fails.
func fallbackDecision(cause error) strategy.RoutingDecision {
	return strategy.RoutingDecision{
		Strategy: strategy.RoutingStrategy{
			PrimaryAgent:       registry.AgentGeneralAnalyst,
			Collaboration:      strategy.CollabNone,
			ExpectedConfidence: 0.7,
			EstimatedTime:      10 * time.Second,
		},
		Reasoning: []string{
			"routing pipeline unavailable, using the general analyst",
			fmt.Sprintf("cause: %v", cause),
		},
		Fallback: true,
	}
}

// tierFromFactors recovers the tier string recorded in context factors.
func tierFromFactors(factors []string) string {
	const prefix = "complexity tier: "
	for _, factor := range factors {
		if len(factor) > len(prefix) && factor[:len(prefix)] == prefix {
			return factor[len(prefix):]
		}
	}
	return ""
}
