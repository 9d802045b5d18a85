package gallery

import (
	"context"
	"fmt"

	"github.com/bkclothing/bk-site/service/logger"
	"github.com/bkclothing/bk-site/service/restkv"
	"github.com/bkclothing/bk-site/util"
)

// RESTAdapter stores the collection under one key of a REST key-value store.
type RESTAdapter struct {
	client   *restkv.Client
	key      string
	seedPath string
}

func NewRESTAdapter(client *restkv.Client, key, seedPath string) *RESTAdapter {
	return &RESTAdapter{client: client, key: key, seedPath: seedPath}
}

// Load reads the stored collection. If the store has never been written and a local seed file
// exists, the seed is copied into the store and returned.
func (r *RESTAdapter) Load(ctx context.Context) (Collection, error) {
	data, err := r.client.Get(ctx, r.key)
	if err == nil {
		return decodeOrEmpty(ctx, "kv:"+r.key, data), nil
	}
	if !util.ErrorAs[restkv.ErrKeyNotFound](err) {
		return nil, fmt.Errorf("reading gallery from kv: %w", err)
	}

	seed, ok := readSeed(ctx, r.seedPath)
	if !ok {
		return Collection{}, nil
	}

	if err := r.Store(ctx, seed); err != nil {
		logger.For(ctx).Warnf("could not copy gallery seed into kv: %s", err)
	} else {
		logger.For(ctx).Infof("seeded kv gallery with %d items from %s", len(seed), r.seedPath)
	}

	return seed, nil
}

func (r *RESTAdapter) Store(ctx context.Context, items Collection) error {
	data, err := Encode(items)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("writing gallery to kv: %w", err)
	}
	return nil
}
