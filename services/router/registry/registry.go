// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/cache"
	"github.com/AleutianAI/AleutianInsight/services/router/complexity"
)

// =============================================================================
// Registry
// =============================================================================

// loadSample is the cache-persisted live state for one agent. Reporters
// write these under the agent_load category; the registry folds them
// into its capability records on refresh.
type loadSample struct {
	Load        float64           `json:"load"`
	Performance *PerformanceStats `json:"performance,omitempty"`
	ReportedAt  time.Time         `json:"reported_at"`
}

// Registry holds the canonical capability set.
//
// # Description
//
// The static capability records come from DefaultCapabilities or a
// configuration file. CurrentLoad and Performance are the only mutable
// fields; they refresh from the cache service on a short TTL so
// concurrent routing calls share one snapshot instead of recomputing.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	agents      map[string]AgentCapability
	refreshedAt time.Time

	cache           *cache.Service
	refreshInterval time.Duration
	logger          *slog.Logger
	clock           func() time.Time
}

// Config configures a Registry.
type Config struct {
	// Capabilities seeds the registry. Defaults to DefaultCapabilities.
	Capabilities []AgentCapability

	// Cache backs live load refresh. Optional; without it loads stay
	// at their configured values until RecordLoad is called.
	Cache *cache.Service

	// RefreshInterval bounds how often the cache is consulted for live
	// loads. Defaults to the agent_load category TTL.
	RefreshInterval time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New builds a Registry, filling config defaults.
func New(cfg Config) *Registry {
	if len(cfg.Capabilities) == 0 {
		cfg.Capabilities = DefaultCapabilities()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = cache.TTLFor(cache.CategoryAgentLoad)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	agents := make(map[string]AgentCapability, len(cfg.Capabilities))
	for _, capability := range cfg.Capabilities {
		agents[capability.AgentID] = capability
	}
	return &Registry{
		agents:          agents,
		cache:           cfg.Cache,
		refreshInterval: cfg.RefreshInterval,
		logger:          cfg.Logger,
		clock:           time.Now,
	}
}

// Snapshot returns a copy of the current capability set, refreshing
// live loads from the cache when the last refresh has gone stale.
func (r *Registry) Snapshot(ctx context.Context) map[string]AgentCapability {
	r.maybeRefresh(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]AgentCapability, len(r.agents))
	for id, capability := range r.agents {
		out[id] = capability
	}
	return out
}

// IsSuitable reports whether the agent's tier covers the query's tier
// on the ordinal scale simple < moderate < complex < expert.
func (r *Registry) IsSuitable(agentID string, tier complexity.Tier) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	capability, ok := r.agents[agentID]
	if !ok {
		return false
	}
	return capability.Tier.Ordinal() >= tier.Ordinal()
}

// RecordLoad updates an agent's live load, both in the registry and in
// the cache so other instances pick it up on their next refresh.
func (r *Registry) RecordLoad(ctx context.Context, agentID string, load float64, perf *PerformanceStats) {
	if load < 0 {
		load = 0
	}
	if load > 1 {
		load = 1
	}

	r.mu.Lock()
	capability, ok := r.agents[agentID]
	if ok {
		capability.CurrentLoad = load
		if perf != nil {
			capability.Performance = *perf
		}
		r.agents[agentID] = capability
	}
	r.mu.Unlock()

	if !ok {
		r.logger.Warn("load reported for unknown agent", "agent_id", agentID)
		return
	}
	if r.cache != nil {
		sample := loadSample{Load: load, Performance: perf, ReportedAt: r.clock().UTC()}
		r.cache.SetJSON(ctx, cache.Key(cache.CategoryAgentLoad, agentID), sample, cache.TTLFor(cache.CategoryAgentLoad))
	}
}

// Replace swaps the static capability set, keeping live loads for
// agents that survive the swap. Used by configuration hot reload.
func (r *Registry) Replace(capabilities []AgentCapability) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agents := make(map[string]AgentCapability, len(capabilities))
	for _, capability := range capabilities {
		if existing, ok := r.agents[capability.AgentID]; ok {
			capability.CurrentLoad = existing.CurrentLoad
			capability.Performance = existing.Performance
		}
		agents[capability.AgentID] = capability
	}
	r.agents = agents
	r.logger.Info("agent capability set replaced", "agents", len(agents))
}

// maybeRefresh folds cached load samples into the capability records,
// at most once per refresh interval.
func (r *Registry) maybeRefresh(ctx context.Context) {
	if r.cache == nil {
		return
	}

	r.mu.Lock()
	now := r.clock()
	if now.Sub(r.refreshedAt) < r.refreshInterval {
		r.mu.Unlock()
		return
	}
	r.refreshedAt = now
	ids := make([]string, 0, len(r.agents))
	for id := range r.agents {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	// Cache reads happen without the lock so slow round trips never
	// stall concurrent Snapshot callers.
	samples := make(map[string]loadSample, len(ids))
	for _, id := range ids {
		var sample loadSample
		if r.cache.GetJSON(ctx, cache.Key(cache.CategoryAgentLoad, id), &sample) {
			samples[id] = sample
		}
	}

	r.mu.Lock()
	for id, sample := range samples {
		capability, ok := r.agents[id]
		if !ok {
			continue
		}
		capability.CurrentLoad = sample.Load
		if sample.Performance != nil {
			capability.Performance = *sample.Performance
		}
		r.agents[id] = capability
	}
	r.mu.Unlock()
	r.logger.Debug("refreshed agent loads from cache", "agents", len(samples))
}
