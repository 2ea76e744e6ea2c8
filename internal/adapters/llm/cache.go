package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/smarthr/pkg/logger"
)

const cacheKeyPrefix = "smarthr:narrative:"

// errCacheMiss is returned by cacheBackend.Get when the key is absent.
var errCacheMiss = errors.New("cache miss")

type cacheHitKey struct{}

// WithCacheTracking returns a context under which a Cached generator sets
// the returned flag when it answers from cache.
func WithCacheTracking(ctx context.Context) (context.Context, *bool) {
	hit := new(bool)
	return context.WithValue(ctx, cacheHitKey{}, hit), hit
}

func markCacheHit(ctx context.Context) {
	if hit, ok := ctx.Value(cacheHitKey{}).(*bool); ok {
		*hit = true
	}
}

type cacheBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache is a cacheBackend on redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to addr and pings it.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisCache{client: client}, nil
}

// Get returns errCacheMiss for absent keys.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errCacheMiss
	}
	return v, err
}

// Set stores value with ttl.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error { return c.client.Close() }

// Cached serves repeated prompts from a cache. Cache failures are logged and
// otherwise ignored; generation failures are never cached.
type Cached struct {
	next    Generator
	backend cacheBackend
	ttl     time.Duration
	log     logger.Logger
}

// NewCached wraps next with backend.
func NewCached(next Generator, backend cacheBackend, ttl time.Duration, log logger.Logger) *Cached {
	if log == nil {
		log = logger.Nop()
	}
	return &Cached{next: next, backend: backend, ttl: ttl, log: log}
}

// Generate implements Generator.
func (c *Cached) Generate(ctx context.Context, prompt string) (string, error) {
	key := CacheKey(prompt)
	v, err := c.backend.Get(ctx, key)
	switch {
	case err == nil && v != "":
		markCacheHit(ctx)
		return v, nil
	case err != nil && !errors.Is(err, errCacheMiss):
		c.log.Warn(ctx, "narrative cache read failed", logger.Error(err))
	}

	text, err := c.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := c.backend.Set(ctx, key, text, c.ttl); err != nil {
		c.log.Warn(ctx, "narrative cache write failed", logger.Error(err))
	}
	return text, nil
}

// Provider implements Named.
func (c *Cached) Provider() string { return ProviderOf(c.next) }

// CacheKey derives the cache key of a prompt.
func CacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
