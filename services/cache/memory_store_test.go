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
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_SetGet(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	if err := store.Set(ctx, "route:u1:abc", []byte(`{"agent":"procurement"}`), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := store.Get(ctx, "route:u1:abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != `{"agent":"procurement"}` {
		t.Errorf("Get = %q, want stored value", value)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore(10)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on missing key = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	if err := store.Set(ctx, "greeting:u1", []byte("hello"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Still live just before the deadline.
	now = now.Add(59 * time.Second)
	if _, err := store.Get(ctx, "greeting:u1"); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	// Expired entries read as absent.
	now = now.Add(2 * time.Second)
	if _, err := store.Get(ctx, "greeting:u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after expiry = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	now = now.Add(365 * 24 * time.Hour)
	if _, err := store.Get(ctx, "k"); err != nil {
		t.Errorf("Get on non-expiring entry = %v, want success", err)
	}
}

func TestMemoryStore_EvictsOldestAtCapacity(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		now = now.Add(time.Second)
		key := fmt.Sprintf("k%d", i)
		if err := store.Set(ctx, key, []byte("v"), time.Hour); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}

	// Fourth write evicts k0, the oldest.
	now = now.Add(time.Second)
	if err := store.Set(ctx, "k3", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set k3 failed: %v", err)
	}

	if _, err := store.Get(ctx, "k0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest entry survived eviction, Get k0 = %v", err)
	}
	for _, key := range []string{"k1", "k2", "k3"} {
		if _, err := store.Get(ctx, key); err != nil {
			t.Errorf("Get %s after eviction = %v, want success", key, err)
		}
	}
	if store.Len() != 3 {
		t.Errorf("Len = %d, want 3", store.Len())
	}
}

func TestMemoryStore_WritePurgesExpired(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	if err := store.Set(ctx, "short", []byte("v"), time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "long", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// "short" has expired; the next write should reclaim its slot rather
	// than evict "long".
	now = now.Add(2 * time.Second)
	if err := store.Set(ctx, "new", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := store.Get(ctx, "long"); err != nil {
		t.Errorf("live entry evicted instead of expired one: %v", err)
	}
}

func TestMemoryStore_KeysMatching(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for _, key := range []string{"report:a", "report:b", "route:u1:x", "index:semantic:u1"} {
		if err := store.Set(ctx, key, []byte("v"), time.Hour); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}

	keys, err := store.KeysMatching(ctx, "report:*")
	if err != nil {
		t.Fatalf("KeysMatching failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("KeysMatching(report:*) = %v, want 2 keys", keys)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k%d:%d", id, j%10)
				_ = store.Set(ctx, key, []byte("v"), time.Hour)
				_, _ = store.Get(ctx, key)
				_, _ = store.KeysMatching(ctx, fmt.Sprintf("k%d:*", id))
			}
		}(i)
	}
	wg.Wait()
}

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"report:*", "report:abc", true},
		{"report:*", "route:abc", false},
		{"*", "anything", true},
		{"index:semantic:*", "index:semantic:u1", true},
		{"index:semantic:*", "index:episodic:u1", false},
		{"k?", "k1", true},
		{"k?", "k12", false},
		{"a*b*c", "axxbyyc", true},
		{"a*b*c", "axxbyy", false},
		{"exact", "exact", true},
		{"exact", "exactly", false},
	}

	for _, tt := range tests {
		if got := globMatch(tt.pattern, tt.key); got != tt.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", tt.pattern, tt.key, got, tt.want)
		}
	}
}
