// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides the dual-tier caching layer for the routing service.
//
// # Description
//
// The cache layer has two cooperating pieces:
//
//   - Store: a narrow key/value contract with per-entry TTL. Three
//     implementations exist: RedisStore (durable, networked), BadgerStore
//     (durable, single-node), and MemoryStore (bounded, in-process).
//   - Service: wraps a durable Store and a MemoryStore, adds category TTLs,
//     deterministic key hashing, and silent fallback to the in-process tier
//     when the durable store is unreachable.
//
// All values are opaque byte payloads; callers serialize with encoding/json.
// Keys follow the "category:part1:part2..." convention so categories never
// collide.
//
// # Thread Safety
//
// All Store implementations and the Service are safe for concurrent use.
// Individual key operations are atomic; there is no multi-key transaction
// support and none is needed (last-write-wins per key).
package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a key is absent or its entry has expired.
	ErrNotFound = errors.New("cache: key not found")

	// ErrStoreUnavailable is returned when the durable store cannot be
	// reached. The Service treats this as a signal to fall back to the
	// in-process tier.
	ErrStoreUnavailable = errors.New("cache: store unavailable")

	// ErrClosed is returned after Close has been called.
	ErrClosed = errors.New("cache: store closed")
)

// Store is the key/value contract shared by all cache tiers.
//
// # Description
//
// A Store holds opaque byte values under string keys with a per-entry
// time-to-live. Reads must never return an expired entry.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key.
	//
	// Outputs:
	//
	//	[]byte - The stored value.
	//	error - ErrNotFound if absent or expired, ErrStoreUnavailable on
	//	        connection failure.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL. A ttl <= 0 means the
	// entry never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// KeysMatching returns all live keys matching a glob pattern
	// ("report:*", "index:episodic:?").
	KeysMatching(ctx context.Context, pattern string) ([]string, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
