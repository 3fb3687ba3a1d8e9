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
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/cache"
	"github.com/AleutianAI/AleutianInsight/services/router/complexity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSuitable_OrdinalScale(t *testing.T) {
	reg := New(Config{})

	// General analyst caps out at moderate.
	assert.True(t, reg.IsSuitable(AgentGeneralAnalyst, complexity.TierSimple))
	assert.True(t, reg.IsSuitable(AgentGeneralAnalyst, complexity.TierModerate))
	assert.False(t, reg.IsSuitable(AgentGeneralAnalyst, complexity.TierComplex))

	// Data scientist covers everything.
	assert.True(t, reg.IsSuitable(AgentDataScientist, complexity.TierExpert))

	assert.False(t, reg.IsSuitable("nonexistent", complexity.TierSimple))
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	reg := New(Config{})
	ctx := context.Background()

	snap := reg.Snapshot(ctx)
	require.Contains(t, snap, AgentGeneralAnalyst)

	mutated := snap[AgentGeneralAnalyst]
	mutated.CurrentLoad = 0.99
	snap[AgentGeneralAnalyst] = mutated

	fresh := reg.Snapshot(ctx)
	assert.NotEqual(t, 0.99, fresh[AgentGeneralAnalyst].CurrentLoad)
}

func TestRecordLoad_ClampsAndPersists(t *testing.T) {
	svc := cache.NewService(cache.ServiceConfig{
		MaxLocalEntries:     100,
		MaintenanceInterval: time.Hour,
	})
	t.Cleanup(func() { _ = svc.Close() })

	reg := New(Config{Cache: svc})
	ctx := context.Background()

	reg.RecordLoad(ctx, AgentRiskAnalyst, 1.7, nil)
	snap := reg.Snapshot(ctx)
	assert.Equal(t, 1.0, snap[AgentRiskAnalyst].CurrentLoad)

	var sample loadSample
	require.True(t, svc.GetJSON(ctx, cache.Key(cache.CategoryAgentLoad, AgentRiskAnalyst), &sample))
	assert.Equal(t, 1.0, sample.Load)
}

func TestSnapshot_RefreshesFromCache(t *testing.T) {
	svc := cache.NewService(cache.ServiceConfig{
		MaxLocalEntries:     100,
		MaintenanceInterval: time.Hour,
	})
	t.Cleanup(func() { _ = svc.Close() })
	ctx := context.Background()

	// Another instance reported load before this registry existed.
	svc.SetJSON(ctx, cache.Key(cache.CategoryAgentLoad, AgentDataScientist),
		loadSample{Load: 0.85, ReportedAt: time.Now()}, time.Minute)

	reg := New(Config{Cache: svc, RefreshInterval: time.Nanosecond})
	time.Sleep(time.Millisecond)

	snap := reg.Snapshot(ctx)
	assert.Equal(t, 0.85, snap[AgentDataScientist].CurrentLoad)
}

func TestSnapshot_StaleSampleDoesNotResurrectRemovedAgent(t *testing.T) {
	svc := cache.NewService(cache.ServiceConfig{
		MaxLocalEntries:     100,
		MaintenanceInterval: time.Hour,
	})
	t.Cleanup(func() { _ = svc.Close() })
	ctx := context.Background()

	svc.SetJSON(ctx, cache.Key(cache.CategoryAgentLoad, AgentDataScientist),
		loadSample{Load: 0.85, ReportedAt: time.Now()}, time.Minute)

	reg := New(Config{Cache: svc, RefreshInterval: time.Nanosecond})
	reg.Replace([]AgentCapability{
		{AgentID: AgentGeneralAnalyst, Tier: complexity.TierModerate},
	})
	time.Sleep(time.Millisecond)

	snap := reg.Snapshot(ctx)
	assert.NotContains(t, snap, AgentDataScientist)
}

func TestSnapshot_ConcurrentWithLoadReports(t *testing.T) {
	svc := cache.NewService(cache.ServiceConfig{
		MaxLocalEntries:     100,
		MaintenanceInterval: time.Hour,
	})
	t.Cleanup(func() { _ = svc.Close() })
	ctx := context.Background()

	reg := New(Config{Cache: svc, RefreshInterval: time.Nanosecond})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%2 == 0 {
					reg.RecordLoad(ctx, AgentRiskAnalyst, 0.5, nil)
				} else {
					_ = reg.Snapshot(ctx)
				}
			}
		}(i)
	}
	wg.Wait()

	snap := reg.Snapshot(ctx)
	assert.Equal(t, 0.5, snap[AgentRiskAnalyst].CurrentLoad)
}

func TestReplace_KeepsLiveLoad(t *testing.T) {
	reg := New(Config{})
	ctx := context.Background()
	reg.RecordLoad(ctx, AgentGeneralAnalyst, 0.6, nil)

	updated := DefaultCapabilities()
	reg.Replace(updated)

	snap := reg.Snapshot(ctx)
	assert.Equal(t, 0.6, snap[AgentGeneralAnalyst].CurrentLoad, "live load survives a config reload")
}

func TestLoadCapabilities(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "agents.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
agents:
  - agent_id: procurement_specialist
    name: Procurement Specialist
    tier: complex
    domains: [procurement]
    processing_speed: 0.7
    accuracy: 0.88
    collaboration_affinity: 0.6
    current_load: 0.2
  - agent_id: general_analyst
    name: General Analyst
    tier: moderate
    processing_speed: 0.9
    accuracy: 0.8
`), 0o644))

		agents, err := LoadCapabilities(path)
		require.NoError(t, err)
		require.Len(t, agents, 2)
		assert.Equal(t, complexity.TierComplex, agents[0].Tier)
	})

	t.Run("invalid tier rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad_tier.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
agents:
  - agent_id: a1
    tier: impossible
`), 0o644))

		_, err := LoadCapabilities(path)
		assert.Error(t, err)
	})

	t.Run("duplicate ids rejected", func(t *testing.T) {
		path := filepath.Join(dir, "dupes.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
agents:
  - agent_id: a1
    tier: simple
  - agent_id: a1
    tier: moderate
`), 0o644))

		_, err := LoadCapabilities(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate agent id")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCapabilities(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})
}
