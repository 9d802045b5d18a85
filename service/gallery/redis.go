package gallery

import (
	"context"
	"fmt"

	"github.com/bkclothing/bk-site/service/logger"
	"github.com/bkclothing/bk-site/service/redis"
	"github.com/bkclothing/bk-site/util"
)

// RedisAdapter stores the collection under one key in redis. The adapter owns its cache, and with
// it the single connection reused across calls.
type RedisAdapter struct {
	cache    *redis.Cache
	key      string
	seedPath string
}

func NewRedisAdapter(cache *redis.Cache, key, seedPath string) *RedisAdapter {
	return &RedisAdapter{cache: cache, key: key, seedPath: seedPath}
}

// Load reads the stored collection. An unset key is seeded from the local seed file with SETNX,
// so concurrent first reads copy the seed at most once.
func (r *RedisAdapter) Load(ctx context.Context) (Collection, error) {
	data, err := r.cache.Get(ctx, r.key)
	if err == nil {
		return decodeOrEmpty(ctx, "redis:"+r.key, data), nil
	}
	if !util.ErrorAs[redis.ErrKeyNotFound](err) {
		return nil, fmt.Errorf("reading gallery from redis: %w", err)
	}

	seed, ok := readSeed(ctx, r.seedPath)
	if !ok {
		return Collection{}, nil
	}

	encoded, err := Encode(seed)
	if err != nil {
		return nil, err
	}

	set, err := r.cache.SetNX(ctx, r.key, encoded, 0)
	if err != nil {
		logger.For(ctx).Warnf("could not copy gallery seed into redis: %s", err)
		return seed, nil
	}
	if set {
		logger.For(ctx).Infof("seeded redis gallery with %d items from %s", len(seed), r.seedPath)
		return seed, nil
	}

	// Another process seeded (or wrote) the key first
	data, err = r.cache.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("reading gallery from redis: %w", err)
	}
	return decodeOrEmpty(ctx, "redis:"+r.key, data), nil
}

func (r *RedisAdapter) Store(ctx context.Context, items Collection) error {
	data, err := Encode(items)
	if err != nil {
		return err
	}
	if err := r.cache.Set(ctx, r.key, data, 0); err != nil {
		return fmt.Errorf("writing gallery to redis: %w", err)
	}
	return nil
}

// Close releases the adapter's redis connection.
func (r *RedisAdapter) Close() error {
	return r.cache.Close()
}
