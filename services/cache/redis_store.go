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
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// =============================================================================
// Redis Durable Store
// =============================================================================

// RedisStore is the durable networked Store backed by Redis.
//
// # Description
//
// All operations run with a short command timeout so a dead Redis never
// stalls a routing call; connection errors surface as ErrStoreUnavailable
// and the Service degrades to the in-process tier.
//
// # Thread Safety
//
// Safe for concurrent use. go-redis manages its own connection pool.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
	logger  *slog.Logger
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	// Addr is the Redis host:port. Default: "localhost:6379".
	Addr string

	// Password is the optional Redis password.
	Password string

	// DB is the Redis database number.
	DB int

	// CommandTimeout bounds every store operation. Default: 2s.
	CommandTimeout time.Duration

	// Logger for connection events. If nil, uses slog.Default().
	Logger *slog.Logger
}

// NewRedisStore creates a Redis-backed store.
//
// # Description
//
// The constructor does not require Redis to be reachable: the Service
// probes with Ping and falls back on failure, matching the rest of the
// degrade-don't-fail posture.
//
// Inputs:
//
//	cfg - Store configuration. Zero values use defaults.
//
// Outputs:
//
//	*RedisStore - The store instance.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 2 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.CommandTimeout,
		ReadTimeout:  cfg.CommandTimeout,
		WriteTimeout: cfg.CommandTimeout,
	})

	return &RedisStore{
		client:  client,
		timeout: cfg.CommandTimeout,
		logger:  logger,
	}
}

// Get returns the value stored under key.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, r.unavailable("get", err)
	}
	return val, nil
}

// Set stores value under key with the given TTL.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return r.unavailable("set", err)
	}
	return nil
}

// Delete removes key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return r.unavailable("delete", err)
	}
	return nil
}

// KeysMatching returns all keys matching the glob pattern.
//
// Uses SCAN rather than KEYS so a large keyspace never blocks Redis.
func (r *RedisStore) KeysMatching(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, r.unavailable("scan", err)
	}
	return keys, nil
}

// Ping verifies Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the client connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// bound applies the command timeout to ctx.
func (r *RedisStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// unavailable wraps a connection-level error as ErrStoreUnavailable.
func (r *RedisStore) unavailable(op string, err error) error {
	r.logger.Debug("redis operation failed",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

var _ Store = (*RedisStore)(nil)
