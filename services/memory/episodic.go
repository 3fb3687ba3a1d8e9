// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/cache"
	"github.com/google/uuid"
)

// =============================================================================
// Episodic Memory Store
// =============================================================================

// EpisodeStore persists conversation summaries.
//
// Episodes are immutable once recorded. The per-user index is already
// most-recent-first, so recency ranking falls out of index order.
type EpisodeStore struct {
	cache  *cache.Service
	logger *slog.Logger
	clock  func() time.Time
}

// NewEpisodeStore creates an episodic store over the cache service.
func NewEpisodeStore(svc *cache.Service, logger *slog.Logger) *EpisodeStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &EpisodeStore{cache: svc, logger: logger, clock: time.Now}
}

// Record stores a completed or checkpointed conversation episode.
//
// Inputs:
//
//	episode - The episode. ID may be empty; one is assigned. EndTime
//	          defaults to now when zero.
func (s *EpisodeStore) Record(ctx context.Context, episode ConversationEpisode) error {
	if episode.UserID == "" {
		return ErrEmptyUserID
	}
	if episode.ID == "" {
		episode.ID = uuid.NewString()
	}
	if episode.EndTime.IsZero() {
		episode.EndTime = s.clock().UTC()
	}

	s.logger.Debug("recorded conversation episode",
		"user_id", episode.UserID,
		"conversation_id", episode.ConversationID,
		"topics", episode.Topics,
	)
	return storeEntity(ctx, s.cache, KindEpisodic, episode.UserID, episode.ID, episode)
}

// Recent returns the user's most recent episodes, newest first.
// limit <= 0 returns all still-live episodes.
func (s *EpisodeStore) Recent(ctx context.Context, userID string, limit int) []ConversationEpisode {
	return loadByIndex[ConversationEpisode](ctx, s.cache, KindEpisodic, userID, limit)
}
