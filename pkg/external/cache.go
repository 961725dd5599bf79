package external

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// TranscriptKey derives the cache key of a document from its content.
func TranscriptKey(data []byte) string {
	sum := sha256.Sum256(data)
	return "ocr:" + hex.EncodeToString(sum[:])
}

// MemoryCache keeps transcriptions in an in-process LRU with expiry.
type MemoryCache struct {
	lru *expirable.LRU[string, string]
}

// NewMemoryCache creates an LRU cache holding at most size entries for ttl each.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 256
	}
	return &MemoryCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Get returns a cached transcription.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	text, ok := c.lru.Get(key)
	return text, ok, nil
}

// Set stores a transcription.
func (c *MemoryCache) Set(_ context.Context, key, text string) error {
	c.lru.Add(key, text)
	return nil
}

// Len returns the number of cached transcriptions.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// RedisCache shares transcriptions between the HTTP and MCP server processes.
type RedisCache struct {
	redis      *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		redis:      client,
		defaultTTL: ttl,
	}, nil
}

// Get returns a cached transcription.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get transcript cache: %w", err)
	}
	return val, true, nil
}

// Set stores a transcription with the default TTL.
func (c *RedisCache) Set(ctx context.Context, key, text string) error {
	if err := c.redis.Set(ctx, key, text, c.defaultTTL).Err(); err != nil {
		return fmt.Errorf("failed to set transcript cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.redis.Close()
}
