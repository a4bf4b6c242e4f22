package probe

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	xerrors "ProfileFinder/internal/errors"
	"ProfileFinder/internal/observability/metrics"
	"ProfileFinder/pkg/logger"
)

// Entry is the cached part of a probe.
type Entry struct {
	URL        string `json:"url"`
	Exists     bool   `json:"exists"`
	StatusCode int    `json:"status_code"`
}

// Cache stores definitive probe outcomes keyed by username.
type Cache interface {
	Get(ctx context.Context, username string) (Entry, bool, error)
	Set(ctx context.Context, username string, entry Entry) error
}

// LRUCache keeps entries in process memory with a bounded size and TTL.
type LRUCache struct {
	entries *lru.LRU[string, Entry]
}

// NewLRUCache creates an in-memory cache. size and ttl fall back to 1024 and
// one hour when not positive.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LRUCache{entries: lru.NewLRU[string, Entry](size, nil, ttl)}
}

// Get implements Cache.
func (c *LRUCache) Get(_ context.Context, username string) (Entry, bool, error) {
	entry, ok := c.entries.Get(username)
	return entry, ok, nil
}

// Set implements Cache.
func (c *LRUCache) Set(_ context.Context, username string, entry Entry) error {
	c.entries.Add(username, entry)
	return nil
}

// Len returns the number of live entries.
func (c *LRUCache) Len() int {
	return c.entries.Len()
}

// RedisCache shares probe outcomes between processes.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisCacheOptions configures a RedisCache.
type RedisCacheOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts RedisCacheOptions) (*RedisCache, error) {
	if opts.Addr == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, xerrors.Wrap(xerrors.CodeCacheFailure, err, "connect redis")
	}
	return NewRedisCacheWithClient(client, opts.Prefix, opts.TTL), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "finder:probe:"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, username string) (Entry, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+username).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, xerrors.Wrap(xerrors.CodeCacheFailure, err, "read probe cache")
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false, xerrors.Wrap(xerrors.CodeCacheFailure, err, "decode probe cache entry")
	}
	return entry, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, username string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeCacheFailure, err, "encode probe cache entry")
	}
	if err := c.client.Set(ctx, c.prefix+username, raw, c.ttl).Err(); err != nil {
		return xerrors.Wrap(xerrors.CodeCacheFailure, err, "write probe cache")
	}
	return nil
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedChecker consults a Cache before delegating to another Checker. Only
// definitive outcomes are stored; cache failures fall through to a live probe.
type CachedChecker struct {
	next   Checker
	cache  Cache
	logger *slog.Logger
}

// NewCachedChecker decorates next with cache. A nil cache returns next's
// behaviour unchanged.
func NewCachedChecker(next Checker, cache Cache) *CachedChecker {
	return &CachedChecker{next: next, cache: cache, logger: logger.Named("probe-cache")}
}

// Check implements Checker.
func (c *CachedChecker) Check(ctx context.Context, username string, timeout time.Duration) Probe {
	if c.cache == nil {
		return c.next.Check(ctx, username, timeout)
	}
	entry, ok, err := c.cache.Get(ctx, username)
	if err != nil {
		c.logger.Warn("probe cache read failed", slog.String("username", username), slog.Any("error", err))
	}
	metrics.ObserveProbeCache(ok)
	if ok {
		return Probe{Username: username, URL: entry.URL, Exists: entry.Exists, StatusCode: entry.StatusCode}
	}

	result := c.next.Check(ctx, username, timeout)
	if result.Definitive() {
		entry := Entry{URL: result.URL, Exists: result.Exists, StatusCode: result.StatusCode}
		if err := c.cache.Set(ctx, username, entry); err != nil {
			c.logger.Warn("probe cache write failed", slog.String("username", username), slog.Any("error", err))
		}
	}
	return result
}
