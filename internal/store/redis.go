package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HendryAvila/clickup-mcp/internal/cache"
)

const redisPrefix = "clickup-mcp:"

// Redis stores entries as plain keys with a server-side TTL, so expiry
// needs no sweeping.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to redisURL and checks the connection.
func NewRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisWithClient(client), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: redisPrefix}
}

func (s *Redis) key(k string) string {
	return s.prefix + k
}

// Get returns the live record for key, or nil.
func (s *Redis) Get(ctx context.Context, key string) (*cache.Record, error) {
	pipe := s.client.Pipeline()
	get := pipe.Get(ctx, s.key(key))
	ttl := pipe.PTTL(ctx, s.key(key))
	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	value, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	rec := &cache.Record{Value: value}
	if d := ttl.Val(); d > 0 {
		rec.ExpiresAt = time.Now().Add(d)
	}
	return rec, nil
}

// Set stores value with ttl as the key's expiry. ttl <= 0 never expires.
func (s *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Purge deletes every key under this store's prefix.
func (s *Redis) Purge(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis purge: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis purge: %w", err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis purge: %w", err)
		}
	}
	return nil
}

// Close closes the client.
func (s *Redis) Close() error {
	return s.client.Close()
}
