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
	"sync"
	"time"
)

// =============================================================================
// In-Process Fallback Store
// =============================================================================

// MemoryStore is a bounded in-process Store.
//
// # Description
//
// MemoryStore is the fallback tier used when the durable store is
// unreachable, and the store of choice for tests. It enforces a maximum
// entry count: when a write would exceed the bound, expired entries are
// purged first and then the oldest live entries are evicted until the
// write fits.
//
// Expiry is passive. Reads check the entry deadline and report expired
// entries as absent; the sweep on write reclaims the space.
//
// # Thread Safety
//
// Safe for concurrent use. All state is guarded by a single mutex; no
// operation blocks on I/O.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	maxLen  int
	clock   func() time.Time
}

// memoryEntry is one stored value with its expiry deadline.
type memoryEntry struct {
	value    []byte
	storedAt time.Time
	// expiresAt is zero for entries that never expire.
	expiresAt time.Time
}

// DefaultMemoryStoreMaxLen bounds the fallback tier. Oldest entries are
// evicted first once the bound is reached.
const DefaultMemoryStoreMaxLen = 1000

// NewMemoryStore creates a bounded in-process store.
//
// Inputs:
//
//	maxLen - Maximum entry count. Values <= 0 use DefaultMemoryStoreMaxLen.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = DefaultMemoryStoreMaxLen
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		maxLen:  maxLen,
		clock:   time.Now,
	}
}

// Get returns the value stored under key, or ErrNotFound if the key is
// absent or its TTL has elapsed.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if m.expired(entry) {
		delete(m.entries, key)
		return nil, ErrNotFound
	}

	// Copy so callers cannot mutate the stored slice.
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// Set stores value under key. Expired entries are purged and, if the store
// is still at capacity, the oldest live entries are evicted to make room.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	m.purgeExpiredLocked()

	if _, exists := m.entries[key]; !exists {
		for len(m.entries) >= m.maxLen {
			m.evictOldestLocked()
		}
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	entry := &memoryEntry{value: stored, storedAt: now}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

// Delete removes key. Absent keys are a no-op.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// KeysMatching returns all live keys matching the glob pattern.
func (m *MemoryStore) KeysMatching(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key, entry := range m.entries {
		if m.expired(entry) {
			continue
		}
		if globMatch(pattern, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Ping always succeeds; the in-process tier cannot be unreachable.
func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Close drops all entries.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*memoryEntry)
	return nil
}

// Len returns the current live entry count. Expired entries still occupying
// space are counted; they are reclaimed on the next write.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep removes all expired entries and returns how many were removed.
// Called periodically by the Service maintenance loop.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.entries)
	m.purgeExpiredLocked()
	return before - len(m.entries)
}

// SetClock replaces the time source. Test hook only.
func (m *MemoryStore) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

func (m *MemoryStore) expired(e *memoryEntry) bool {
	return !e.expiresAt.IsZero() && m.clock().After(e.expiresAt)
}

// purgeExpiredLocked removes expired entries. Caller must hold mu.
func (m *MemoryStore) purgeExpiredLocked() {
	for key, entry := range m.entries {
		if m.expired(entry) {
			delete(m.entries, key)
		}
	}
}

// evictOldestLocked removes the entry with the earliest storedAt.
// Caller must hold mu. O(n) scan is fine at the default bound.
func (m *MemoryStore) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.storedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
		recordEviction("memory")
	}
}

// =============================================================================
// Glob Matching
// =============================================================================

// globMatch reports whether key matches pattern. Supports the same subset
// Redis KEYS supports for our key shapes: '*' matches any run of characters
// and '?' matches exactly one. Iterative two-pointer match with backtracking
// on the last '*'.
func globMatch(pattern, key string) bool {
	p, k := 0, 0
	star, mark := -1, 0

	for k < len(key) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == key[k]):
			p++
			k++
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = k
			p++
		case star >= 0:
			p = star + 1
			mark++
			k = mark
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
