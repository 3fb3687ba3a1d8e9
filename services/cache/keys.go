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
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// =============================================================================
// Categories and TTLs
// =============================================================================

// Category names a class of cached values with a fixed TTL.
type Category string

const (
	CategoryQueryResult         Category = "query_result"
	CategoryConversationContext Category = "conversation_context"
	CategoryGreeting            Category = "greeting"
	CategoryReport              Category = "report"
	CategoryEmbedding           Category = "embedding"
	CategoryChartConfig         Category = "chart_config"
	CategoryRoute               Category = "route"
	CategoryAgentLoad           Category = "agent_load"
	CategoryMemory              Category = "memory"
	CategoryIndex               Category = "index"
)

// =============================================================================
// Key Construction
// =============================================================================

// Key joins a category and discriminator parts into a cache key.
//
// # Description
//
// Produces "category:part1:part2...". Parts are normalized (lowercased,
// internal colons replaced) so the same logical inputs always yield the
// same key and categories stay collision-free. Use HashKey instead when a
// part is free text.
func Key(category Category, parts ...string) string {
	elems := make([]string, 0, len(parts)+1)
	elems = append(elems, string(category))
	for _, p := range parts {
		elems = append(elems, normalizePart(p))
	}
	return strings.Join(elems, ":")
}

// HashKey builds a cache key whose last segment is a deterministic hash of
// free-text content.
//
// # Description
//
// The content strings are normalized and concatenated before hashing, so
// "Show me top suppliers" and "show me top suppliers " produce the same
// key. The hash is the first 16 hex characters of SHA-256: short enough to
// read in Redis tooling, long enough that collisions within a category are
// not a practical concern.
//
// Inputs:
//
//	category - The key category.
//	parts - Fixed discriminators (user id, data source), may be empty.
//	content - Free-text inputs folded into the hash.
func HashKey(category Category, parts []string, content ...string) string {
	h := sha256.New()
	for _, c := range content {
		h.Write([]byte(normalizeContent(c)))
		h.Write([]byte{0})
	}
	digest := hex.EncodeToString(h.Sum(nil))[:16]
	return Key(category, append(parts, digest)...)
}

// normalizePart makes a discriminator safe for the colon-delimited layout.
func normalizePart(p string) string {
	p = strings.TrimSpace(strings.ToLower(p))
	p = strings.ReplaceAll(p, ":", "_")
	p = strings.ReplaceAll(p, " ", "_")
	if p == "" {
		p = "_"
	}
	return p
}

// normalizeContent canonicalizes free text before hashing: lowercase and
// collapse whitespace runs.
func normalizeContent(c string) string {
	return strings.Join(strings.Fields(strings.ToLower(c)), " ")
}
