// Package aicache stores AI transformation results in Redis.
package aicache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every cache entry.
const KeyPrefix = "notegraph:ai:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	// PingTimeout bounds the connectivity check in Connect.
	PingTimeout time.Duration
}

// Redis implements aigateway.Cache.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Connect dials Redis and verifies it answers a ping.
func Connect(ctx context.Context, opts Options, logger *slog.Logger) (*Redis, error) {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.PingTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("aicache: redis unavailable at %s: %w", opts.Addr, err)
	}
	logger.Info("aicache: connected", slog.String("addr", opts.Addr), slog.Duration("ttl", opts.TTL))
	return New(client, opts.TTL, logger), nil
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Key returns the namespaced Redis key for a cache key.
func Key(k string) string { return KeyPrefix + k }

// Get returns the cached value. A miss returns ok false and a nil error.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, Key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("aicache: get: %w", err)
	}
	return v, true, nil
}

// Set stores value under key for the configured TTL.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, Key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("aicache: set: %w", err)
	}
	return nil
}

// Flush removes every cached result.
func (r *Redis) Flush(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, KeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("aicache: delete %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("aicache: flush: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
