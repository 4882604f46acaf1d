// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Opinionated default timeouts for Redis operations.
const (
	redisDialTimeout  = 3 * time.Second
	redisReadTimeout  = 2 * time.Second
	redisWriteTimeout = 2 * time.Second
	redisPingTimeout  = 2 * time.Second
)

// redisKeyPrefix namespaces every app key inside a possibly shared instance.
const redisKeyPrefix = "ticketloft:"

// Redis is a [Store] for hosts that already run a local Redis.
//
// # Durability
//
// Only as durable as the server's own persistence configuration (RDB/AOF).
// Keys are written without TTL: the session pointer and user directory live
// until explicitly removed.
type Redis struct {
	client *redis.Client
}

// NewRedis parses a Redis URL and returns a verified, ready-to-use store.
//
// # Parameters
//   - ctx: Context for the initial ping.
//   - redisURL: Redis connection URL.
//   - logger: Structured logger for connection events.
func NewRedis(ctx context.Context, redisURL string, logger *slog.Logger) (*Redis, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("kvstore: invalid redis URL: %w", err)
	}

	// Pool configuration tuning. The CLI issues at most a handful of
	// sequential commands per run, so the pool stays small.
	options.PoolSize = 5
	options.MinIdleConns = 1

	options.DialTimeout = redisDialTimeout
	options.ReadTimeout = redisReadTimeout
	options.WriteTimeout = redisWriteTimeout

	client := redis.NewClient(options)

	// Validate connectivity immediately at startup.
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("kvstore: redis ping failed: %w", err)
	}

	logger.Info("redis store connected", slog.String("addr", options.Addr))

	return &Redis{client: client}, nil
}

// Ensure the interface is met.
var _ Store = (*Redis)(nil)

// Get returns the value stored under key.
func (store *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := store.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: redis get failed: %w", err)
	}
	return value, true, nil
}

// Set writes value under key, replacing any previous value.
func (store *Redis) Set(ctx context.Context, key, value string) error {
	if err := store.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("kvstore: redis set failed: %w", err)
	}
	return nil
}

// Remove deletes the key. Removing an absent key is a no-op.
func (store *Redis) Remove(ctx context.Context, key string) error {
	if err := store.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("kvstore: redis remove failed: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (store *Redis) Close() error {
	return store.client.Close()
}
