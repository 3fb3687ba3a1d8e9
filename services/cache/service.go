// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Category TTLs
// =============================================================================

// categoryTTLs fixes the time-to-live per cached value class.
var categoryTTLs = map[Category]time.Duration{
	CategoryQueryResult:         1 * time.Hour,
	CategoryConversationContext: 24 * time.Hour,
	CategoryGreeting:            7 * 24 * time.Hour,
	CategoryReport:              4 * time.Hour,
	CategoryEmbedding:           30 * 24 * time.Hour,
	CategoryChartConfig:         2 * time.Hour,
	CategoryRoute:               30 * time.Minute,
	CategoryAgentLoad:           5 * time.Minute,
	CategoryMemory:              90 * 24 * time.Hour,
	CategoryIndex:               90 * 24 * time.Hour,
}

// TTLFor returns the fixed TTL for a category. Unknown categories get one
// hour, the most conservative of the short-lived classes.
func TTLFor(category Category) time.Duration {
	if ttl, ok := categoryTTLs[category]; ok {
		return ttl
	}
	return 1 * time.Hour
}

// =============================================================================
// Cache Service
// =============================================================================

// Service is the dual-tier cache used by the routing engine and the memory
// coordinator.
//
// # Description
//
// Service prefers the durable store. On any connection failure it switches
// to the bounded in-process tier for the rest of the instance's life unless
// a background re-probe restores the durable store. The switch is silent
// from the caller's perspective: SafeGet and SafeSet never return transport
// errors, only presence.
//
// A maintenance goroutine periodically sweeps expired entries from the
// memory tier and, while degraded, re-probes the durable store.
//
// # Thread Safety
//
// Safe for concurrent use. The tier decision is a single atomic flag;
// per-key atomicity is delegated to the stores.
type Service struct {
	durable  Store
	local    *MemoryStore
	logger   *slog.Logger
	degraded atomic.Bool

	maintInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// ServiceConfig configures the cache Service.
type ServiceConfig struct {
	// Durable is the durable store tier. May be nil, in which case the
	// service runs memory-only (degraded from the start).
	Durable Store

	// MaxLocalEntries bounds the in-process tier.
	// Default: DefaultMemoryStoreMaxLen.
	MaxLocalEntries int

	// MaintenanceInterval is how often the background loop sweeps the
	// memory tier and re-probes a failed durable store. Default: 30s.
	MaintenanceInterval time.Duration

	// Logger for tier transitions. If nil, uses slog.Default().
	Logger *slog.Logger
}

// NewService creates the cache service and starts its maintenance loop.
//
// # Description
//
// Probes the durable store once at construction; if unreachable the
// service starts degraded and the maintenance loop keeps re-probing.
// Call Close to stop the loop and release the stores.
//
// Inputs:
//
//	cfg - Service configuration. Zero values use defaults.
//
// Outputs:
//
//	*Service - The running service.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.MaintenanceInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	s := &Service{
		durable:       cfg.Durable,
		local:         NewMemoryStore(cfg.MaxLocalEntries),
		logger:        logger,
		maintInterval: interval,
		stop:          make(chan struct{}),
	}

	if s.durable == nil {
		s.degraded.Store(true)
		logger.Info("cache service running memory-only, no durable store configured")
	} else if err := s.durable.Ping(context.Background()); err != nil {
		s.enterDegraded("unreachable", err)
	}

	go s.maintenanceLoop()
	return s
}

// Close stops the maintenance loop and closes both tiers.
func (s *Service) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })

	var err error
	if s.durable != nil {
		err = s.durable.Close()
	}
	if cerr := s.local.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Degraded reports whether the service is currently on the in-process tier.
func (s *Service) Degraded() bool {
	return s.degraded.Load()
}

// LocalLen returns the in-process tier entry count, for the stats endpoint.
func (s *Service) LocalLen() int {
	return s.local.Len()
}

// =============================================================================
// Safe Operations
// =============================================================================

// SafeGet returns the value under key, or absent.
//
// # Description
//
// Never returns a transport error. A durable-store failure flips the
// service to the in-process tier and reports the key absent; an expired or
// missing key reports absent on either tier.
//
// Outputs:
//
//	[]byte - The stored value, nil when absent.
//	bool - True if the value was present.
func (s *Service) SafeGet(ctx context.Context, key string) ([]byte, bool) {
	start := time.Now()
	tier, store := s.tier()

	value, err := store.Get(ctx, key)
	recordLatency(tier, "get", time.Since(start).Seconds())

	switch {
	case err == nil:
		recordOp(tier, "get", "hit")
		return value, true
	case errors.Is(err, ErrNotFound):
		recordOp(tier, "get", "miss")
		return nil, false
	case errors.Is(err, ErrStoreUnavailable):
		recordOp(tier, "get", "error")
		s.enterDegraded("unreachable", err)
		return s.localGet(ctx, key)
	default:
		recordOp(tier, "get", "error")
		s.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, false
	}
}

// SafeSet stores value under key with the given TTL.
//
// Never returns a transport error; a durable-store failure degrades to the
// in-process tier and the write lands there instead.
func (s *Service) SafeSet(ctx context.Context, key string, value []byte, ttl time.Duration) {
	start := time.Now()
	tier, store := s.tier()

	err := store.Set(ctx, key, value, ttl)
	recordLatency(tier, "set", time.Since(start).Seconds())

	switch {
	case err == nil:
		recordOp(tier, "set", "ok")
	case errors.Is(err, ErrStoreUnavailable):
		recordOp(tier, "set", "error")
		s.enterDegraded("unreachable", err)
		if lerr := s.local.Set(ctx, key, value, ttl); lerr == nil {
			recordOp("memory", "set", "ok")
		}
	default:
		recordOp(tier, "set", "error")
		s.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// SafeDelete removes key from the active tier.
func (s *Service) SafeDelete(ctx context.Context, key string) {
	tier, store := s.tier()
	if err := store.Delete(ctx, key); err != nil {
		recordOp(tier, "delete", "error")
		if errors.Is(err, ErrStoreUnavailable) {
			s.enterDegraded("unreachable", err)
			_ = s.local.Delete(ctx, key)
		}
		return
	}
	recordOp(tier, "delete", "ok")
}

// KeysMatching returns live keys matching the glob pattern on the active tier.
func (s *Service) KeysMatching(ctx context.Context, pattern string) []string {
	tier, store := s.tier()
	keys, err := store.KeysMatching(ctx, pattern)
	if err != nil {
		recordOp(tier, "scan", "error")
		if errors.Is(err, ErrStoreUnavailable) {
			s.enterDegraded("unreachable", err)
			keys, _ = s.local.KeysMatching(ctx, pattern)
			return keys
		}
		return nil
	}
	recordOp(tier, "scan", "ok")
	return keys
}

// GetJSON unmarshals the value under key into out.
func (s *Service) GetJSON(ctx context.Context, key string, out any) bool {
	raw, ok := s.SafeGet(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("cache entry is not valid JSON, dropping", "key", key, "error", err)
		s.SafeDelete(ctx, key)
		return false
	}
	return true
}

// SetJSON marshals value and stores it under key.
func (s *Service) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache value not serializable", "key", key, "error", err)
		return
	}
	s.SafeSet(ctx, key, raw, ttl)
}

// =============================================================================
// Category Helpers
// =============================================================================

// CacheQueryResult stores a SQL/analysis result keyed by the normalized
// query text and data source. TTL: 1 hour.
func (s *Service) CacheQueryResult(ctx context.Context, query, dataSource string, value any) {
	key := HashKey(CategoryQueryResult, []string{dataSource}, query)
	s.SetJSON(ctx, key, value, TTLFor(CategoryQueryResult))
}

// GetQueryResult retrieves a cached query result.
func (s *Service) GetQueryResult(ctx context.Context, query, dataSource string, out any) bool {
	key := HashKey(CategoryQueryResult, []string{dataSource}, query)
	return s.GetJSON(ctx, key, out)
}

// CacheConversationContext stores per-conversation context. TTL: 24 hours.
func (s *Service) CacheConversationContext(ctx context.Context, userID, conversationID string, value any) {
	key := Key(CategoryConversationContext, userID, conversationID)
	s.SetJSON(ctx, key, value, TTLFor(CategoryConversationContext))
}

// GetConversationContext retrieves cached conversation context.
func (s *Service) GetConversationContext(ctx context.Context, userID, conversationID string, out any) bool {
	key := Key(CategoryConversationContext, userID, conversationID)
	return s.GetJSON(ctx, key, out)
}

// CacheGreeting stores a rendered greeting for a user. TTL: 7 days.
func (s *Service) CacheGreeting(ctx context.Context, userID, text string) {
	key := Key(CategoryGreeting, userID)
	s.SetJSON(ctx, key, text, TTLFor(CategoryGreeting))
}

// GetGreeting retrieves a cached greeting.
func (s *Service) GetGreeting(ctx context.Context, userID string) (string, bool) {
	var text string
	ok := s.GetJSON(ctx, Key(CategoryGreeting, userID), &text)
	return text, ok
}

// CacheEmbedding stores an embedding vector keyed by its source text.
// TTL: 30 days; embeddings are the most expensive values we hold.
func (s *Service) CacheEmbedding(ctx context.Context, text string, vector []float64) {
	key := HashKey(CategoryEmbedding, nil, text)
	s.SetJSON(ctx, key, vector, TTLFor(CategoryEmbedding))
}

// GetEmbedding retrieves a cached embedding vector.
func (s *Service) GetEmbedding(ctx context.Context, text string) ([]float64, bool) {
	var vector []float64
	ok := s.GetJSON(ctx, HashKey(CategoryEmbedding, nil, text), &vector)
	return vector, ok
}

// CacheChartConfig stores a generated chart configuration. TTL: 2 hours.
func (s *Service) CacheChartConfig(ctx context.Context, chartType, query string, value any) {
	key := HashKey(CategoryChartConfig, []string{chartType}, query)
	s.SetJSON(ctx, key, value, TTLFor(CategoryChartConfig))
}

// GetChartConfig retrieves a cached chart configuration.
func (s *Service) GetChartConfig(ctx context.Context, chartType, query string, out any) bool {
	key := HashKey(CategoryChartConfig, []string{chartType}, query)
	return s.GetJSON(ctx, key, out)
}

// CacheRoute stores a routing decision keyed by the query and user.
// TTL: 30 minutes; registry load changes make older routes stale.
func (s *Service) CacheRoute(ctx context.Context, query, userID string, decision any) {
	key := HashKey(CategoryRoute, []string{userID}, query)
	s.SetJSON(ctx, key, decision, TTLFor(CategoryRoute))
}

// GetRoute retrieves a cached routing decision.
func (s *Service) GetRoute(ctx context.Context, query, userID string, out any) bool {
	key := HashKey(CategoryRoute, []string{userID}, query)
	return s.GetJSON(ctx, key, out)
}

// =============================================================================
// Report Caching with Dependency Invalidation
// =============================================================================

// reportEnvelope wraps a cached report with its dependency list so
// invalidation can match changed entities without deserializing the payload.
type reportEnvelope struct {
	Dependencies []string        `json:"dependencies"`
	Payload      json.RawMessage `json:"payload"`
	CachedAt     time.Time       `json:"cached_at"`
}

// CacheReport stores a generated report with the entities it depends on.
// TTL: 4 hours.
//
// Inputs:
//
//	reportID - Stable identifier for the report.
//	dependencies - Entity names whose change invalidates this report
//	               (e.g. "financial_data", "supplier_master").
//	payload - The report content, JSON-serializable.
func (s *Service) CacheReport(ctx context.Context, reportID string, dependencies []string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("report payload not serializable", "report_id", reportID, "error", err)
		return
	}
	envelope := reportEnvelope{
		Dependencies: dependencies,
		Payload:      raw,
		CachedAt:     time.Now().UTC(),
	}
	s.SetJSON(ctx, Key(CategoryReport, reportID), envelope, TTLFor(CategoryReport))
}

// GetReport retrieves a cached report payload.
func (s *Service) GetReport(ctx context.Context, reportID string, out any) bool {
	var envelope reportEnvelope
	if !s.GetJSON(ctx, Key(CategoryReport, reportID), &envelope) {
		return false
	}
	if err := json.Unmarshal(envelope.Payload, out); err != nil {
		return false
	}
	return true
}

// InvalidateReportCache deletes every cached report whose dependency list
// contains changedEntity.
//
// # Description
//
// Scans "report:*", reads each envelope, and deletes matches. Reports that
// fail to deserialize are deleted too; a report we cannot inspect cannot be
// trusted to be fresh.
//
// Outputs:
//
//	int - Number of reports invalidated.
func (s *Service) InvalidateReportCache(ctx context.Context, changedEntity string) int {
	keys := s.KeysMatching(ctx, string(CategoryReport)+":*")

	invalidated := 0
	for _, key := range keys {
		var envelope reportEnvelope
		if !s.GetJSON(ctx, key, &envelope) {
			s.SafeDelete(ctx, key)
			invalidated++
			continue
		}
		for _, dep := range envelope.Dependencies {
			if dep == changedEntity {
				s.SafeDelete(ctx, key)
				invalidated++
				break
			}
		}
	}

	if invalidated > 0 {
		s.logger.Info("invalidated cached reports",
			"changed_entity", changedEntity,
			"count", invalidated,
		)
	}
	return invalidated
}

// =============================================================================
// Tier Management
// =============================================================================

// tier returns the active tier name and store.
func (s *Service) tier() (string, Store) {
	if s.degraded.Load() || s.durable == nil {
		return "memory", s.local
	}
	return "durable", s.durable
}

// localGet is the fallback read path taken immediately after a degrade.
func (s *Service) localGet(ctx context.Context, key string) ([]byte, bool) {
	value, err := s.local.Get(ctx, key)
	if err != nil {
		recordOp("memory", "get", "miss")
		return nil, false
	}
	recordOp("memory", "get", "hit")
	return value, true
}

// enterDegraded flips the service onto the in-process tier.
func (s *Service) enterDegraded(reason string, err error) {
	if s.degraded.Swap(true) {
		return // already degraded
	}
	recordFallback(reason)
	s.logger.Warn("durable cache store unavailable, falling back to in-process tier",
		"reason", reason,
		"error", err,
	)
}

// maintenanceLoop sweeps the memory tier and re-probes a failed durable
// store. Re-probing is best-effort and never blocks callers.
func (s *Service) maintenanceLoop() {
	ticker := time.NewTicker(s.maintInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if swept := s.local.Sweep(); swept > 0 {
				s.logger.Debug("swept expired cache entries", "count", swept)
			}
			if s.degraded.Load() && s.durable != nil {
				s.reprobe()
			}
		}
	}
}

// reprobe attempts to restore the durable tier.
func (s *Service) reprobe() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.durable.Ping(ctx); err != nil {
		return
	}
	s.degraded.Store(false)
	recordRecovery()
	s.logger.Info("durable cache store recovered, leaving fallback mode")
}
