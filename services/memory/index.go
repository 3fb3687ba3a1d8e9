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
	"fmt"

	"github.com/AleutianAI/AleutianInsight/services/cache"
)

// =============================================================================
// Per-User Index Lists
// =============================================================================

// indexKey builds "index:{kind}:{userId}".
func indexKey(kind MemoryKind, userID string) string {
	return cache.Key(cache.CategoryIndex, string(kind), userID)
}

// entityKey builds "memory:{kind}:{userId}:{id}".
func entityKey(kind MemoryKind, userID, id string) string {
	return cache.Key(cache.CategoryMemory, string(kind), userID, id)
}

// indexPrepend puts id at the front of the user's index for kind,
// deduplicating and trimming to MaxIndexEntries.
func indexPrepend(ctx context.Context, svc *cache.Service, kind MemoryKind, userID, id string) {
	key := indexKey(kind, userID)

	var ids []string
	svc.GetJSON(ctx, key, &ids)

	updated := make([]string, 0, len(ids)+1)
	updated = append(updated, id)
	for _, existing := range ids {
		if existing != id {
			updated = append(updated, existing)
		}
	}
	if len(updated) > MaxIndexEntries {
		updated = updated[:MaxIndexEntries]
	}

	svc.SetJSON(ctx, key, updated, cache.TTLFor(cache.CategoryIndex))
}

// indexIDs returns the user's index for kind, most recent first.
func indexIDs(ctx context.Context, svc *cache.Service, kind MemoryKind, userID string) []string {
	var ids []string
	svc.GetJSON(ctx, indexKey(kind, userID), &ids)
	return ids
}

// loadByIndex reads up to limit entities of kind for a user, preserving
// index order and skipping ids whose entity has expired. limit <= 0 loads
// the full index.
func loadByIndex[T any](ctx context.Context, svc *cache.Service, kind MemoryKind, userID string, limit int) []T {
	ids := indexIDs(ctx, svc, kind, userID)

	var out []T
	for _, id := range ids {
		if limit > 0 && len(out) >= limit {
			break
		}
		var entity T
		if svc.GetJSON(ctx, entityKey(kind, userID, id), &entity) {
			out = append(out, entity)
		}
	}
	return out
}

// storeEntity writes an entity and registers it in its owner's index.
func storeEntity(ctx context.Context, svc *cache.Service, kind MemoryKind, userID, id string, entity any) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if id == "" {
		return fmt.Errorf("memory: %s entity id cannot be empty", kind)
	}
	svc.SetJSON(ctx, entityKey(kind, userID, id), entity, cache.TTLFor(cache.CategoryMemory))
	indexPrepend(ctx, svc, kind, userID, id)
	return nil
}
