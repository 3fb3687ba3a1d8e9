// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package memory implements the three persistent memory kinds that feed
// routing decisions: semantic facts, episodic summaries, and procedural
// behavior patterns.
//
// # Description
//
// Every entity is serialized JSON stored through the cache service under a
// deterministic key ("memory:{kind}:{userId}:{id}"), with a per-user index
// list ("index:{kind}:{userId}") ordered most-recent-first and capped at
// MaxIndexEntries. Entities are only ever retrieved through their owner's
// index, so one user's memory can never leak into another's context.
//
// # Thread Safety
//
// Stores hold no mutable state of their own; concurrency safety is
// delegated to the cache service's per-key atomicity. Concurrent writers
// to the same user's index are last-write-wins, which is acceptable for
// this workload (one user rarely routes queries in parallel).
package memory

import (
	"errors"
	"time"
)

// MemoryKind names one of the three memory collections.
type MemoryKind string

const (
	KindSemantic   MemoryKind = "semantic"
	KindEpisodic   MemoryKind = "episodic"
	KindProcedural MemoryKind = "procedural"
)

// FactCategory classifies a semantic fact.
type FactCategory string

const (
	FactPreference FactCategory = "preference"
	FactKnowledge  FactCategory = "knowledge"
	FactBehavior   FactCategory = "behavior"
	FactContext    FactCategory = "context"
)

// ValidFactCategories is the set of accepted fact categories.
var ValidFactCategories = map[FactCategory]bool{
	FactPreference: true,
	FactKnowledge:  true,
	FactBehavior:   true,
	FactContext:    true,
}

// MaxIndexEntries caps every per-user index list. When an index grows past
// the cap the oldest ids fall off; their entities age out via TTL.
const MaxIndexEntries = 100

// Sentinel errors for memory operations.
var (
	ErrEmptyUserID       = errors.New("memory: user id cannot be empty")
	ErrEmptyFact         = errors.New("memory: fact text cannot be empty")
	ErrInvalidCategory   = errors.New("memory: invalid fact category")
	ErrInvalidConfidence = errors.New("memory: confidence must be between 0.0 and 1.0")
)

// SemanticFact is a durable statement about a user, independent of any
// single conversation. Facts are updated in place on reinforcement and are
// never hard-deleted; expiry is TTL-driven.
type SemanticFact struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Fact        string       `json:"fact"`
	Category    FactCategory `json:"category"`
	Confidence  float64      `json:"confidence"`
	LastUpdated time.Time    `json:"last_updated"`

	// Sources lists where this fact was inferred from (conversation ids,
	// "insight", "response_text").
	Sources []string `json:"sources"`
}

// Validate checks the fact before storage.
func (f *SemanticFact) Validate() error {
	if f.UserID == "" {
		return ErrEmptyUserID
	}
	if f.Fact == "" {
		return ErrEmptyFact
	}
	if !ValidFactCategories[f.Category] {
		return ErrInvalidCategory
	}
	if f.Confidence < 0.0 || f.Confidence > 1.0 {
		return ErrInvalidConfidence
	}
	return nil
}

// ConversationEpisode summarizes one completed (or checkpointed)
// conversation. Immutable after creation.
type ConversationEpisode struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time,omitzero"`

	// Messages holds the retained subset of messages, newest last.
	Messages []EpisodeMessage `json:"messages,omitempty"`

	Summary     string   `json:"summary"`
	KeyInsights []string `json:"key_insights,omitempty"`
	Topics      []string `json:"topics,omitempty"`

	// Complexity records the overall tier of the episode's dominant query,
	// used by the profile builder's expertise heuristic.
	Complexity string `json:"complexity,omitempty"`

	// UserContext is a snapshot of the user's context at episode end.
	UserContext map[string]string `json:"user_context,omitempty"`
}

// EpisodeMessage is one retained message inside an episode.
type EpisodeMessage struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ProceduralPattern is a condition→action pair with an empirically tracked
// success rate. The only memory entity with continuous-update semantics.
type ProceduralPattern struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	// Label is the coarse query category the pattern is keyed by
	// (variance, trend, supplier, cost, general).
	Label string `json:"label"`

	Condition string `json:"condition"`
	Action    string `json:"action"`

	// SuccessRate is the running mean of interaction outcomes, in [0,1].
	SuccessRate float64 `json:"success_rate"`

	// UsageCount is how many outcomes have been folded into SuccessRate.
	UsageCount int `json:"usage_count"`

	LastUsed time.Time `json:"last_used"`
}

// RecordOutcome folds one interaction outcome into the running success rate.
//
// # Description
//
// newRate = (oldRate*count + outcome) / (count+1), where outcome is 1 for
// success and 0 for failure. Keeps SuccessRate in [0,1] for any sequence
// of outcomes.
func (p *ProceduralPattern) RecordOutcome(success bool, now time.Time) {
	count := float64(p.UsageCount)
	if success {
		p.SuccessRate = (p.SuccessRate*count + 1) / (count + 1)
	} else {
		p.SuccessRate = (p.SuccessRate * count) / (count + 1)
	}
	p.UsageCount++
	p.LastUsed = now
}

// Context is the aggregate the coordinator hands to the routing layer:
// everything we remember about a user that is relevant to one query.
type Context struct {
	SemanticFacts    []SemanticFact        `json:"semantic_facts"`
	RecentEpisodes   []ConversationEpisode `json:"recent_episodes"`
	RelevantPatterns []ProceduralPattern   `json:"relevant_patterns"`

	// Summary is a short natural-language digest for prompt assembly.
	Summary string `json:"summary"`
}

// Retrieval caps. Facts and episodes are capped; patterns are unbounded
// because one user accrues at most a handful of category patterns.
const (
	DefaultFactLimit    = 5
	DefaultEpisodeLimit = 3
)
