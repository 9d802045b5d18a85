package gallery

import (
	"context"
	"os"

	"github.com/bkclothing/bk-site/env"
	"github.com/bkclothing/bk-site/service/logger"
	"github.com/bkclothing/bk-site/service/redis"
	"github.com/bkclothing/bk-site/service/restkv"
)

const (
	DefaultFilePath = "data/gallery.json"
	DefaultKey      = "gallery"
)

// Adapter persists the whole collection as one value.
//
// Load returns an empty collection when nothing is stored yet or the stored value can't be decoded.
// It only returns an error when the backend itself could not be read. Store replaces the stored
// value and returns any write error.
type Adapter interface {
	Load(ctx context.Context) (Collection, error)
	Store(ctx context.Context, items Collection) error
}

type Backend string

const (
	BackendFile  Backend = "file"
	BackendREST  Backend = "rest-kv"
	BackendRedis Backend = "redis"
)

// Config selects and configures the storage backend.
type Config struct {
	RESTURL       string
	RESTToken     string
	RedisURL      string
	RedisPassword string
	FilePath      string
	SeedPath      string
	Key           string
}

func ConfigFromEnv() Config {
	return Config{
		RESTURL:       env.GetString("KV_REST_API_URL"),
		RESTToken:     env.GetString("KV_REST_API_TOKEN"),
		RedisURL:      env.GetString("REDIS_URL"),
		RedisPassword: env.GetString("REDIS_PASS"),
		FilePath:      env.GetString("GALLERY_PATH"),
		SeedPath:      env.GetString("GALLERY_SEED_PATH"),
		Key:           env.GetString("GALLERY_KV_KEY"),
	}
}

// Backend reports which backend the config selects: the REST store when its URL is set, otherwise
// redis when a connection string is set, otherwise the local file.
func (c Config) Backend() Backend {
	switch {
	case c.RESTURL != "":
		return BackendREST
	case c.RedisURL != "":
		return BackendRedis
	default:
		return BackendFile
	}
}

func (c Config) withDefaults() Config {
	if c.FilePath == "" {
		c.FilePath = DefaultFilePath
	}
	if c.SeedPath == "" {
		c.SeedPath = DefaultFilePath
	}
	if c.Key == "" {
		c.Key = DefaultKey
	}
	return c
}

// NewAdapter builds the adapter selected by the config. The choice is made once, here.
func NewAdapter(c Config) Adapter {
	c = c.withDefaults()

	switch c.Backend() {
	case BackendREST:
		return NewRESTAdapter(restkv.NewClient(c.RESTURL, c.RESTToken, nil), c.Key, c.SeedPath)
	case BackendRedis:
		cache := redis.NewCacheWithURL(c.RedisURL, c.RedisPassword, redis.GalleryCache)
		return NewRedisAdapter(cache, c.Key, c.SeedPath)
	default:
		return NewFileAdapter(c.FilePath)
	}
}

func NewAdapterFromEnv() Adapter {
	c := ConfigFromEnv()
	logger.For(nil).Infof("gallery storage backend: %s", c.Backend())
	return NewAdapter(c)
}

func decodeOrEmpty(ctx context.Context, source string, data []byte) Collection {
	items, err := Decode(data)
	if err != nil {
		logger.For(ctx).Warnf("stored gallery in %s is unreadable, treating it as empty: %s", source, err)
		return Collection{}
	}
	return items
}

// readSeed loads the local seed file used to bootstrap an empty remote store. A missing, empty or
// unreadable seed yields ok=false.
func readSeed(ctx context.Context, path string) (Collection, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.For(ctx).Warnf("could not read gallery seed %s: %s", path, err)
		}
		return nil, false
	}

	items, err := Decode(data)
	if err != nil {
		logger.For(ctx).Warnf("gallery seed %s is unreadable: %s", path, err)
		return nil, false
	}

	return items, len(items) > 0
}
