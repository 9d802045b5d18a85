package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bkclothing/bk-site/env"
	"github.com/bkclothing/bk-site/service/logger"
	"github.com/bkclothing/bk-site/service/tracing"
)

// DefaultStaleAfter is how long a connection may sit idle before it is health-checked on its next use.
const DefaultStaleAfter = 5 * time.Minute

type ErrKeyNotFound struct {
	Key string
}

func (e ErrKeyNotFound) Error() string {
	return fmt.Sprintf("key %s not found", e.Key)
}

// CacheConfig describes a keyspace on the shared redis instance. Hosted redis plans usually expose a
// single logical database, so caches are separated by key prefix rather than by DB number.
type CacheConfig struct {
	displayName string
	keyPrefix   string
}

var (
	GalleryCache      = CacheConfig{keyPrefix: "", displayName: "gallery"}
	RateLimitersCache = CacheConfig{keyPrefix: "limiter", displayName: "rateLimiters"}
)

// NewCacheConfig returns a config for a custom keyspace, mostly useful for tests.
func NewCacheConfig(displayName, keyPrefix string) CacheConfig {
	return CacheConfig{displayName: displayName, keyPrefix: keyPrefix}
}

// Cache represents an abstraction over a redis client. The client is dialed lazily and reused for
// every call made through the cache.
type Cache struct {
	url         string
	password    string
	keyPrefix   string
	displayName string
	staleAfter  time.Duration

	mu       sync.Mutex
	client   *redis.Client
	lastUsed time.Time
}

// NewCache creates a cache connected to REDIS_URL. No connection is made until the first command.
func NewCache(config CacheConfig) *Cache {
	return NewCacheWithURL(env.GetString("REDIS_URL"), env.GetString("REDIS_PASS"), config)
}

// NewCacheWithURL creates a cache for the given connection string, which may be a redis:// or
// rediss:// URL or a bare host:port address.
func NewCacheWithURL(url, password string, config CacheConfig) *Cache {
	return &Cache{
		url:         url,
		password:    password,
		keyPrefix:   config.keyPrefix,
		displayName: config.displayName,
		staleAfter:  DefaultStaleAfter,
	}
}

// ParseOptions converts a connection string into client options.
func ParseOptions(url, password string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("redis connection string is empty")
	}

	if !strings.Contains(url, "://") {
		return &redis.Options{Addr: url, Password: password}, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if opts.Password == "" {
		opts.Password = password
	}
	return opts, nil
}

// Client returns the cache's connection, dialing it on first use. A connection that has been idle
// longer than the staleness window is pinged first and replaced if the ping fails.
func (c *Cache) Client(ctx context.Context) (*redis.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if c.client != nil {
		if now.Sub(c.lastUsed) < c.staleAfter {
			c.lastUsed = now
			return c.client, nil
		}

		err := c.client.Ping(ctx).Err()
		if err == nil {
			c.lastUsed = now
			return c.client, nil
		}

		logger.For(ctx).Warnf("redis connection for %s went stale, reconnecting: %s", c.displayName, err)
		c.client.Close()
		c.client = nil
	}

	opts, err := ParseOptions(c.url, c.password)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	client.AddHook(tracing.NewRedisHook(opts.DB, c.displayName, true))

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	c.client = client
	c.lastUsed = now

	return client, nil
}

func (c *Cache) Prefix() string {
	return c.keyPrefix
}

// Set sets a value in the redis cache
func (c *Cache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	client, err := c.Client(ctx)
	if err != nil {
		return err
	}
	return client.Set(ctx, c.getPrefixedKey(key), value, expiration).Err()
}

// SetNX sets a value in the redis cache if it doesn't already exist. Returns true if the key did not
// already exist and was set, false if the key did exist and therefore was not set.
func (c *Cache) SetNX(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error) {
	client, err := c.Client(ctx)
	if err != nil {
		return false, err
	}

	cmd := client.SetNX(ctx, c.getPrefixedKey(key), value, expiration)
	if err := cmd.Err(); err != nil {
		return false, err
	}

	return cmd.Val(), nil
}

// Get gets a value from the redis cache
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	client, err := c.Client(ctx)
	if err != nil {
		return nil, err
	}

	bs, err := client.Get(ctx, c.getPrefixedKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrKeyNotFound{Key: key}
		}
		return nil, err
	}
	return bs, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	client, err := c.Client(ctx)
	if err != nil {
		return err
	}
	return client.Del(ctx, c.getPrefixedKey(key)).Err()
}

// Close closes the underlying redis client, if one was ever dialed
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}

	err := c.client.Close()
	c.client = nil
	return err
}

func (c *Cache) getPrefixedKey(key string) string {
	if c.keyPrefix == "" {
		return key
	}

	return c.keyPrefix + ":" + key
}
